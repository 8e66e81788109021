package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mkoval/dexbook/internal/api/dto"
	"github.com/mkoval/dexbook/internal/core"
	"github.com/mkoval/dexbook/internal/domain"
	"github.com/mkoval/dexbook/internal/event"
	"github.com/mkoval/dexbook/internal/listing"
	"github.com/mkoval/dexbook/internal/middleware"
	"github.com/mkoval/dexbook/internal/predict"
)

type Options struct {
	// RateLimit throttles order entry per client; zero disables it.
	RateLimit      time.Duration
	WSWriteTimeout time.Duration
}

type Server struct {
	eng      *core.Engine
	listings *listing.Registry
	bets     *predict.Service
	hub      *event.Hub
	log      *zap.Logger
	opts     Options
}

func NewServer(eng *core.Engine, listings *listing.Registry, bets *predict.Service, log *zap.Logger, opts Options) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.WSWriteTimeout <= 0 {
		opts.WSWriteTimeout = 2 * time.Second
	}
	return &Server{
		eng:      eng,
		listings: listings,
		bets:     bets,
		hub:      eng.Hub(),
		log:      log,
		opts:     opts,
	}
}

func (s *Server) Run(addr string) error {
	return s.Router().Run(addr)
}

func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	orders := r.Group("/")
	if s.opts.RateLimit > 0 {
		rl := middleware.NewRateLimiter(s.opts.RateLimit)
		orders.Use(rl.Middleware())
	}
	orders.POST("/orders", s.submitOrder)
	orders.POST("/orders/cancel", s.cancelOrder)

	r.GET("/orders/:id", s.getOrder)
	r.GET("/orderbook", s.getOrderbook)
	r.GET("/depth", s.getDepth)
	r.GET("/trades", s.getTrades)

	r.GET("/pairs", s.listPairs)
	r.POST("/pairs", s.createPair)
	r.POST("/pairs/:id/marketmaker", s.toggleMarketMaker)

	r.POST("/bets", s.placeBet)
	r.GET("/bets", s.listBets)
	r.GET("/bets/:id", s.getBet)

	r.GET("/ws", s.handleWS)

	return r
}

func (s *Server) submitOrder(c *gin.Context) {
	var req dto.SubmitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	side := domain.Side(strings.ToUpper(req.Side))
	res, err := s.eng.Submit(c.Request.Context(), req.Pair, req.Address, side, req.Price, req.Amount)
	if err != nil {
		if errors.Is(err, core.ErrInvalidOrder) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.SubmitOrderResponse{
		Order:  convertOrder(&res.Order),
		Trades: convertTrades(res.Trades),
		Status: string(res.Status),
	})
}

func (s *Server) cancelOrder(c *gin.Context) {
	var req dto.CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := s.eng.Cancel(c.Request.Context(), req.OrderID); err != nil {
		if errors.Is(err, core.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.CancelOrderResponse{OrderID: req.OrderID, Canceled: true})
}

func (s *Server) getOrder(c *gin.Context) {
	o, err := s.eng.Order(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	c.JSON(http.StatusOK, convertOrder(&o))
}

func (s *Server) getOrderbook(c *gin.Context) {
	pair := c.Query("pair")
	if pair == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pair required"})
		return
	}
	snap := s.eng.Book(c.Request.Context(), pair)
	c.JSON(http.StatusOK, dto.OrderbookResponse{
		Pair:      snap.Pair,
		Bids:      convertLevels(snap.Bids),
		Asks:      convertLevels(snap.Asks),
		MidPrice:  snap.MidPrice,
		Timestamp: snap.Timestamp,
	})
}

func (s *Server) getDepth(c *gin.Context) {
	pair := c.Query("pair")
	if pair == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pair required"})
		return
	}
	d := s.eng.Depth(pair)
	c.JSON(http.StatusOK, dto.DepthResponse{
		Pair: d.Pair,
		Bids: convertLevels(d.Bids),
		Asks: convertLevels(d.Asks),
	})
}

func (s *Server) getTrades(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	if address := c.Query("address"); address != "" {
		c.JSON(http.StatusOK, dto.TradesResponse{Trades: convertTrades(s.eng.TradesByAddress(address, limit))})
		return
	}
	pair := c.Query("pair")
	if pair == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pair or address required"})
		return
	}
	c.JSON(http.StatusOK, dto.TradesResponse{Trades: convertTrades(s.eng.Trades(pair, limit))})
}

func (s *Server) listPairs(c *gin.Context) {
	pairs := s.listings.List()
	out := make([]dto.Pair, len(pairs))
	for i, p := range pairs {
		out[i] = convertPair(p)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createPair(c *gin.Context) {
	var req dto.CreatePairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := s.listings.Create(c.Request.Context(), domain.Pair{
		ID:             req.ID,
		BaseSymbol:     req.BaseSymbol,
		QuoteSymbol:    req.QuoteSymbol,
		BaseAddress:    req.BaseAddress,
		QuoteAddress:   req.QuoteAddress,
		Chain:          req.Chain,
		MarketMaker:    req.MarketMaker,
		ReferencePrice: req.ReferencePrice,
	})
	if err != nil {
		if errors.Is(err, listing.ErrPairExists) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, convertPair(p))
}

func (s *Server) toggleMarketMaker(c *gin.Context) {
	var req dto.ToggleMarketMakerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := s.listings.SetMarketMaker(c.Request.Context(), c.Param("id"), *req.Enabled)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, convertPair(p))
}

func (s *Server) placeBet(c *gin.Context) {
	var req dto.PlaceBetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dir := predict.Direction(strings.ToUpper(req.Direction))
	bet, err := s.bets.Place(req.Pair, req.Address, dir, req.Stake, time.Duration(req.DurationSeconds)*time.Second)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, convertBet(bet))
}

func (s *Server) listBets(c *gin.Context) {
	address := c.Query("address")
	if address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "address required"})
		return
	}
	bets := s.bets.ListByAddress(address)
	out := make([]dto.Bet, len(bets))
	for i, b := range bets {
		out[i] = convertBet(b)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getBet(c *gin.Context) {
	bet, err := s.bets.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "bet not found"})
		return
	}
	c.JSON(http.StatusOK, convertBet(bet))
}

func convertOrder(o *domain.Order) dto.Order {
	return dto.Order{
		ID:        o.ID,
		Pair:      o.Pair,
		Address:   o.Address,
		Side:      string(o.Side),
		Price:     o.Price,
		Amount:    o.Amount,
		Filled:    o.Filled,
		Status:    string(o.Status()),
		CreatedAt: o.CreatedAt,
	}
}

func convertTrades(trades []*domain.Trade) []dto.Trade {
	res := make([]dto.Trade, len(trades))
	for i, t := range trades {
		res[i] = dto.Trade{
			ID:           t.ID,
			Pair:         t.Pair,
			Price:        t.Price,
			Amount:       t.Amount,
			Side:         string(t.Side),
			TakerOrderID: t.TakerOrderID,
			MakerOrderID: t.MakerOrderID,
			TakerAddress: t.TakerAddress,
			MakerAddress: t.MakerAddress,
			Timestamp:    t.Timestamp,
		}
	}
	return res
}

func convertLevels(levels []domain.DepthLevel) []dto.BookLevel {
	res := make([]dto.BookLevel, len(levels))
	for i, lv := range levels {
		res[i] = dto.BookLevel{
			Price:      lv.Price,
			Amount:     lv.Amount,
			Cumulative: lv.Cumulative,
		}
	}
	return res
}

func convertPair(p *domain.Pair) dto.Pair {
	return dto.Pair{
		ID:             p.ID,
		BaseSymbol:     p.BaseSymbol,
		QuoteSymbol:    p.QuoteSymbol,
		BaseAddress:    p.BaseAddress,
		QuoteAddress:   p.QuoteAddress,
		Chain:          p.Chain,
		MarketMaker:    p.MarketMaker,
		ReferencePrice: p.ReferencePrice,
		CreatedAt:      p.CreatedAt,
	}
}

func convertBet(b *predict.Bet) dto.Bet {
	return dto.Bet{
		ID:        b.ID,
		Pair:      b.Pair,
		Address:   b.Address,
		Direction: string(b.Direction),
		Stake:     b.Stake,
		EntryMid:  b.EntryMid,
		ExitMid:   b.ExitMid,
		Payout:    b.Payout,
		Status:    string(b.Status),
		PlacedAt:  b.PlacedAt,
		ResolveAt: b.ResolveAt,
	}
}

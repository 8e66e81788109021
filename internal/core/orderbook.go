package core

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mkoval/dexbook/internal/domain"
)

var ErrOrderNotFound = errors.New("order not found")

// OrderBook is the authoritative resting-order state for one pair. Every
// order reachable from byID sits in exactly one side's price bucket and vice
// versa; the mutex is held for whole submit/insert/remove operations so that
// pairing is never observed half-updated.
type OrderBook struct {
	mu       sync.Mutex
	pair     string
	bids     *bookSide
	asks     *bookSide
	byID     map[string]*domain.Order
	trades   []*domain.Trade // newest first, capped at tradeCap
	tradeCap int

	refPrice decimal.Decimal // mid-price fallback until a real mid exists
	lastMid  decimal.Decimal
	hasMid   bool
}

func NewOrderBook(pair string, tradeCap int, refPrice decimal.Decimal) *OrderBook {
	if tradeCap <= 0 {
		tradeCap = 200
	}
	return &OrderBook{
		pair:     pair,
		bids:     newBookSide(domain.Buy),
		asks:     newBookSide(domain.Sell),
		byID:     make(map[string]*domain.Order),
		tradeCap: tradeCap,
		refPrice: refPrice,
	}
}

// Submit matches the incoming order against the opposite side and rests any
// remainder on its own side. Returns the executions in match order plus the
// order's state as of this pass; once it rests, concurrent submits may fill
// it further, so the snapshot is taken while the lock is still held.
func (b *OrderBook) Submit(o *domain.Order) (domain.Order, []*domain.Trade) {
	b.mu.Lock()
	defer b.mu.Unlock()

	trades := b.match(o)
	if !o.IsFilled() {
		b.insert(o)
	}
	b.recordTrades(trades)
	b.refreshMid()
	return *o, trades
}

func (b *OrderBook) match(taker *domain.Order) []*domain.Trade {
	opp := b.sideFor(taker.Side.Opposite())

	var trades []*domain.Trade
	for !taker.IsFilled() && !opp.empty() {
		lv := opp.levels[0]
		if !marketable(taker, lv.price) {
			break
		}
		for len(lv.orders) > 0 && !taker.IsFilled() {
			maker := lv.orders[0]
			fill := decimal.Min(taker.Remaining(), maker.Remaining())
			if !fill.GreaterThan(decimal.Zero) {
				// A resting order with no remainder means insert/remove got
				// out of sync with fills. Mispricing silently is worse than
				// stopping here.
				panic(fmt.Sprintf("orderbook %s: resting order %s has no remainder", b.pair, maker.ID))
			}
			taker.Filled = taker.Filled.Add(fill)
			maker.Filled = maker.Filled.Add(fill)

			trades = append(trades, &domain.Trade{
				ID:           uuid.NewString(),
				Pair:         b.pair,
				Price:        maker.Price, // maker's quoted price always wins
				Amount:       fill,
				Side:         taker.Side,
				TakerOrderID: taker.ID,
				MakerOrderID: maker.ID,
				TakerAddress: taker.Address,
				MakerAddress: maker.Address,
				Timestamp:    time.Now(),
			})

			if maker.IsFilled() {
				lv.orders = lv.orders[1:]
				delete(b.byID, maker.ID)
			}
		}
		if len(lv.orders) == 0 {
			opp.levels = opp.levels[1:]
		}
	}
	return trades
}

func marketable(taker *domain.Order, restingPrice decimal.Decimal) bool {
	if taker.Side == domain.Buy {
		return restingPrice.LessThanOrEqual(taker.Price)
	}
	return restingPrice.GreaterThanOrEqual(taker.Price)
}

// Insert places an unfilled order straight into the book without matching.
func (b *OrderBook) Insert(o *domain.Order) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.insert(o)
	b.refreshMid()
}

func (b *OrderBook) insert(o *domain.Order) {
	b.sideFor(o.Side).insert(o)
	b.byID[o.ID] = o
}

func (b *OrderBook) sideFor(side domain.Side) *bookSide {
	if side == domain.Buy {
		return b.bids
	}
	return b.asks
}

// Remove deletes a resting order, both for explicit cancels and fills.
// Returns the removed order's final state, or ErrOrderNotFound.
func (b *OrderBook) Remove(orderID string) (domain.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	o, ok := b.byID[orderID]
	if !ok {
		return domain.Order{}, ErrOrderNotFound
	}
	if !b.sideFor(o.Side).remove(o) {
		panic(fmt.Sprintf("orderbook %s: order %s indexed but not bucketed", b.pair, orderID))
	}
	delete(b.byID, orderID)
	b.refreshMid()
	return *o, nil
}

func (b *OrderBook) Order(orderID string) (domain.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.byID[orderID]
	if !ok {
		return domain.Order{}, ErrOrderNotFound
	}
	return *o, nil
}

func (b *OrderBook) BestBid() (decimal.Decimal, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bids.best()
}

func (b *OrderBook) BestAsk() (decimal.Decimal, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.asks.best()
}

// MidPrice is (bestBid+bestAsk)/2 when both sides rest. With a one-sided or
// empty book it falls back to the last mid seen, and before any mid existed,
// to the pair's configured reference price.
func (b *OrderBook) MidPrice() decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.midPrice()
}

func (b *OrderBook) midPrice() decimal.Decimal {
	bid, okB := b.bids.best()
	ask, okA := b.asks.best()
	if okB && okA {
		return bid.Add(ask).Div(decimal.NewFromInt(2))
	}
	if b.hasMid {
		return b.lastMid
	}
	return b.refPrice
}

func (b *OrderBook) refreshMid() {
	bid, okB := b.bids.best()
	ask, okA := b.asks.best()
	if okB && okA {
		b.lastMid = bid.Add(ask).Div(decimal.NewFromInt(2))
		b.hasMid = true
	}
}

func (b *OrderBook) recordTrades(trades []*domain.Trade) {
	for _, t := range trades {
		b.trades = append([]*domain.Trade{t}, b.trades...)
	}
	if len(b.trades) > b.tradeCap {
		b.trades = b.trades[:b.tradeCap]
	}
}

// Trades returns up to limit executions, most recent first.
func (b *OrderBook) Trades(limit int) []*domain.Trade {
	b.mu.Lock()
	defer b.mu.Unlock()
	if limit <= 0 || limit > len(b.trades) {
		limit = len(b.trades)
	}
	out := make([]*domain.Trade, limit)
	copy(out, b.trades[:limit])
	return out
}

// TradesFor returns retained executions the address took part in, either side.
func (b *OrderBook) TradesFor(address string) []*domain.Trade {
	address = domain.NormalizeAddress(address)
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []*domain.Trade
	for _, t := range b.trades {
		if t.TakerAddress == address || t.MakerAddress == address {
			out = append(out, t)
		}
	}
	return out
}

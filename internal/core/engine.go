package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mkoval/dexbook/internal/domain"
	"github.com/mkoval/dexbook/internal/event"
	"github.com/mkoval/dexbook/internal/port"
)

var ErrInvalidOrder = errors.New("invalid order")

// RefPriceSource supplies the per-pair mid-price fallback. The listing
// registry implements it; the engine stays agnostic of pair metadata beyond
// this one number.
type RefPriceSource interface {
	ReferencePrice(pair string) (decimal.Decimal, bool)
}

type Options struct {
	// TradeHistory bounds the per-pair trade ring.
	TradeHistory int
	// ReferencePrice is the mid-price fallback for pairs without their own.
	ReferencePrice decimal.Decimal
	RefPrices      RefPriceSource
}

// Engine owns one OrderBook per pair, constructed on first use. It runs the
// matching, archives activity best-effort and publishes deltas on the hub.
// Different pairs match concurrently; each book serializes its own mutations.
type Engine struct {
	mu    sync.RWMutex
	books map[string]*OrderBook

	repo  port.Repository
	cache port.Cache
	hub   *event.Hub
	log   *zap.Logger
	opts  Options
}

// SubmitResult reports what happened to an incoming order: the executions
// produced and whether the order filled, partially filled and rests, or
// rests untouched.
type SubmitResult struct {
	Order  domain.Order
	Trades []*domain.Trade
	Status domain.OrderStatus
}

func NewEngine(repo port.Repository, cache port.Cache, hub *event.Hub, log *zap.Logger, opts Options) *Engine {
	if hub == nil {
		hub = event.NewHub(0)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		books: make(map[string]*OrderBook),
		repo:  repo,
		cache: cache,
		hub:   hub,
		log:   log,
		opts:  opts,
	}
}

func (e *Engine) Hub() *event.Hub { return e.hub }

// Submit runs one deterministic matching pass for the incoming order.
// Well-formedness is checked once here; the book assumes it afterwards.
func (e *Engine) Submit(ctx context.Context, pair, address string, side domain.Side, price, amount decimal.Decimal) (*SubmitResult, error) {
	if side != domain.Buy && side != domain.Sell {
		return nil, fmt.Errorf("%w: side %q", ErrInvalidOrder, side)
	}
	if !price.GreaterThan(decimal.Zero) {
		return nil, fmt.Errorf("%w: price must be > 0", ErrInvalidOrder)
	}
	if !amount.GreaterThan(decimal.Zero) {
		return nil, fmt.Errorf("%w: amount must be > 0", ErrInvalidOrder)
	}
	if pair == "" {
		return nil, fmt.Errorf("%w: pair required", ErrInvalidOrder)
	}

	o := &domain.Order{
		ID:        uuid.NewString(),
		Pair:      pair,
		Address:   domain.NormalizeAddress(address),
		Side:      side,
		Price:     price,
		Amount:    amount,
		CreatedAt: time.Now(),
	}

	b := e.bookFor(pair)
	// the book copies the order under its lock; reading *o here would race
	// with concurrent fills once the order rests
	snapshot, trades := b.Submit(o)

	e.archiveOrder(ctx, &snapshot)
	for _, t := range trades {
		e.archiveTrade(ctx, t)
	}
	e.refreshCache(ctx, pair, b)

	e.hub.Publish(event.OrderPlaced(&snapshot))
	if len(trades) > 0 {
		e.hub.Publish(event.TradesExecuted(pair, trades))
	}
	e.hub.Publish(event.BookChanged(pair))

	e.log.Debug("order submitted",
		zap.String("pair", pair),
		zap.String("order_id", snapshot.ID),
		zap.String("side", string(side)),
		zap.Int("trades", len(trades)),
		zap.String("status", string(snapshot.Status())))

	return &SubmitResult{
		Order:  snapshot,
		Trades: trades,
		Status: snapshot.Status(),
	}, nil
}

// Cancel removes a resting order. A second cancel of the same id reports
// ErrOrderNotFound and has no further side effects.
func (e *Engine) Cancel(ctx context.Context, orderID string) (domain.Order, error) {
	for pair, b := range e.allBooks() {
		o, err := b.Remove(orderID)
		if errors.Is(err, ErrOrderNotFound) {
			continue
		}
		if err != nil {
			return domain.Order{}, err
		}

		if e.repo != nil {
			if rerr := e.repo.CancelOrder(ctx, orderID); rerr != nil {
				e.log.Warn("archive cancel failed", zap.String("order_id", orderID), zap.Error(rerr))
			}
		}
		e.invalidateCache(ctx, pair)
		e.hub.Publish(event.OrderCanceled(pair, orderID))
		e.hub.Publish(event.BookChanged(pair))
		e.log.Debug("order canceled", zap.String("pair", pair), zap.String("order_id", orderID))
		return o, nil
	}
	return domain.Order{}, ErrOrderNotFound
}

// Order looks a resting order up by id across all pairs.
func (e *Engine) Order(orderID string) (domain.Order, error) {
	for _, b := range e.allBooks() {
		if o, err := b.Order(orderID); err == nil {
			return o, nil
		}
	}
	return domain.Order{}, ErrOrderNotFound
}

// Book returns the ladder view for a pair, trying the snapshot cache first.
func (e *Engine) Book(ctx context.Context, pair string) *domain.BookSnapshot {
	if e.cache != nil {
		if snap, err := e.cache.GetBook(ctx, pair); err == nil && snap != nil {
			return snap
		}
	}
	b := e.bookFor(pair)
	snap := b.Snapshot()
	e.refreshCache(ctx, pair, b)
	return snap
}

// Depth returns cumulative depth per side, best price first.
func (e *Engine) Depth(pair string) *domain.Depth {
	return e.bookFor(pair).Depth()
}

// MidPrice is the reference price consumers settle against; it falls back
// deterministically when a side is empty (see OrderBook.MidPrice).
func (e *Engine) MidPrice(pair string) decimal.Decimal {
	return e.bookFor(pair).MidPrice()
}

// Trades returns most-recent-first executions for a pair.
func (e *Engine) Trades(pair string, limit int) []*domain.Trade {
	return e.bookFor(pair).Trades(limit)
}

// TradesByAddress gathers executions the address participated in across all
// pairs, most recent first.
func (e *Engine) TradesByAddress(address string, limit int) []*domain.Trade {
	var out []*domain.Trade
	for _, b := range e.allBooks() {
		out = append(out, b.TradesFor(address)...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (e *Engine) bookFor(pair string) *OrderBook {
	e.mu.RLock()
	b := e.books[pair]
	e.mu.RUnlock()
	if b != nil {
		return b
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if b = e.books[pair]; b != nil {
		return b
	}
	ref := e.opts.ReferencePrice
	if e.opts.RefPrices != nil {
		if p, ok := e.opts.RefPrices.ReferencePrice(pair); ok {
			ref = p
		}
	}
	b = NewOrderBook(pair, e.opts.TradeHistory, ref)
	e.books[pair] = b
	return b
}

func (e *Engine) allBooks() map[string]*OrderBook {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]*OrderBook, len(e.books))
	for pair, b := range e.books {
		out[pair] = b
	}
	return out
}

func (e *Engine) archiveOrder(ctx context.Context, o *domain.Order) {
	if e.repo == nil {
		return
	}
	if err := e.repo.SaveOrder(ctx, o); err != nil {
		e.log.Warn("archive order failed", zap.String("order_id", o.ID), zap.Error(err))
	}
}

func (e *Engine) archiveTrade(ctx context.Context, t *domain.Trade) {
	if e.repo == nil {
		return
	}
	if err := e.repo.SaveTrade(ctx, t); err != nil {
		e.log.Warn("archive trade failed", zap.String("trade_id", t.ID), zap.Error(err))
	}
}

func (e *Engine) refreshCache(ctx context.Context, pair string, b *OrderBook) {
	if e.cache == nil {
		return
	}
	if err := e.cache.SetBook(ctx, pair, b.Snapshot()); err != nil {
		e.log.Debug("cache refresh failed", zap.String("pair", pair), zap.Error(err))
	}
}

func (e *Engine) invalidateCache(ctx context.Context, pair string) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Invalidate(ctx, pair); err != nil {
		e.log.Debug("cache invalidate failed", zap.String("pair", pair), zap.Error(err))
	}
}

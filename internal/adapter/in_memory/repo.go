package in_memory

import (
	"context"
	"errors"
	"sync"

	"github.com/mkoval/dexbook/internal/domain"
	"github.com/mkoval/dexbook/internal/port"
)

var _ port.Repository = (*MemoryRepo)(nil)

// MemoryRepo is the default archive when no Postgres DSN is configured.
type MemoryRepo struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
	trades []*domain.Trade
	pairs  map[string]*domain.Pair
	closed map[string]struct{}
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		orders: make(map[string]*domain.Order),
		pairs:  make(map[string]*domain.Pair),
		closed: make(map[string]struct{}),
	}
}

func (r *MemoryRepo) SaveOrder(ctx context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	r.orders[o.ID] = &cp
	return nil
}

func (r *MemoryRepo) SaveTrade(ctx context.Context, t *domain.Trade) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trades = append(r.trades, t)
	return nil
}

func (r *MemoryRepo) CancelOrder(ctx context.Context, orderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[orderID]; !ok {
		return errors.New("order not found")
	}
	r.closed[orderID] = struct{}{}
	return nil
}

func (r *MemoryRepo) SavePair(ctx context.Context, p *domain.Pair) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.pairs[p.ID] = &cp
	return nil
}

func (r *MemoryRepo) Close(ctx context.Context) {}

// TradeCount reports archived executions, used by tests.
func (r *MemoryRepo) TradeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.trades)
}

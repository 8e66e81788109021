package listing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mkoval/dexbook/internal/domain"
	"github.com/mkoval/dexbook/internal/port"
)

var (
	ErrPairNotFound = errors.New("pair not found")
	ErrPairExists   = errors.New("pair already listed")
)

// Registry owns pair listings. Pairs are created once, never deleted; the
// market-maker flag is the only mutable field. The matching engine never
// touches this state beyond the reference-price lookup.
type Registry struct {
	mu    sync.RWMutex
	pairs map[string]*domain.Pair

	repo       port.Repository
	log        *zap.Logger
	defaultRef decimal.Decimal
}

func NewRegistry(repo port.Repository, log *zap.Logger, defaultRef decimal.Decimal) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		pairs:      make(map[string]*domain.Pair),
		repo:       repo,
		log:        log,
		defaultRef: defaultRef,
	}
}

// Create lists a new pair. The id defaults to "base-quote" lowercased, and
// an unset reference price falls back to the registry default.
func (r *Registry) Create(ctx context.Context, p domain.Pair) (*domain.Pair, error) {
	if p.BaseSymbol == "" || p.QuoteSymbol == "" {
		return nil, fmt.Errorf("base and quote symbols required")
	}
	if p.ID == "" {
		p.ID = strings.ToLower(p.BaseSymbol + "-" + p.QuoteSymbol)
	}
	if !p.ReferencePrice.GreaterThan(decimal.Zero) {
		p.ReferencePrice = r.defaultRef
	}
	p.CreatedAt = time.Now()

	r.mu.Lock()
	if _, exists := r.pairs[p.ID]; exists {
		r.mu.Unlock()
		return nil, ErrPairExists
	}
	r.pairs[p.ID] = &p
	r.mu.Unlock()

	r.archive(ctx, &p)
	r.log.Info("pair listed", zap.String("pair", p.ID), zap.String("chain", p.Chain))
	cp := p
	return &cp, nil
}

func (r *Registry) Get(id string) (*domain.Pair, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pairs[id]
	if !ok {
		return nil, ErrPairNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *Registry) List() []*domain.Pair {
	r.mu.RLock()
	out := make([]*domain.Pair, 0, len(r.pairs))
	for _, p := range r.pairs {
		cp := *p
		out = append(out, &cp)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SetMarketMaker toggles whether the quoting bot is allowed on the pair.
func (r *Registry) SetMarketMaker(ctx context.Context, id string, enabled bool) (*domain.Pair, error) {
	r.mu.Lock()
	p, ok := r.pairs[id]
	if !ok {
		r.mu.Unlock()
		return nil, ErrPairNotFound
	}
	p.MarketMaker = enabled
	cp := *p
	r.mu.Unlock()

	r.archive(ctx, &cp)
	r.log.Info("market maker flag set", zap.String("pair", id), zap.Bool("enabled", enabled))
	return &cp, nil
}

// MarketMakerPairs lists the pair ids the bot may quote.
func (r *Registry) MarketMakerPairs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for id, p := range r.pairs {
		if p.MarketMaker {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// ReferencePrice implements core.RefPriceSource.
func (r *Registry) ReferencePrice(pair string) (decimal.Decimal, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pairs[pair]
	if !ok {
		return decimal.Zero, false
	}
	return p.ReferencePrice, true
}

func (r *Registry) archive(ctx context.Context, p *domain.Pair) {
	if r.repo == nil {
		return
	}
	if err := r.repo.SavePair(ctx, p); err != nil {
		r.log.Warn("archive pair failed", zap.String("pair", p.ID), zap.Error(err))
	}
}

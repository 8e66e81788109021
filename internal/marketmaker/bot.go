package marketmaker

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mkoval/dexbook/internal/core"
	"github.com/mkoval/dexbook/internal/domain"
)

// Engine is the slice of the order API the bot uses. It goes through the
// same public surface as any other trader.
type Engine interface {
	MidPrice(pair string) decimal.Decimal
	Submit(ctx context.Context, pair, address string, side domain.Side, price, amount decimal.Decimal) (*core.SubmitResult, error)
	Cancel(ctx context.Context, orderID string) (domain.Order, error)
}

// Listings gates which pairs may be quoted.
type Listings interface {
	MarketMakerPairs() []string
}

type Config struct {
	Address  string
	Interval time.Duration
	// Spread is the half-spread as a fraction of mid, e.g. 0.01 for 1%.
	Spread decimal.Decimal
	Size   decimal.Decimal
}

// Bot keeps a two-sided quote around the mid-price on every flagged pair,
// replacing its own stale quotes each round.
type Bot struct {
	eng      Engine
	listings Listings
	cfg      Config
	log      *zap.Logger

	open map[string][]string // pair -> resting quote order ids
}

func New(eng Engine, listings Listings, cfg Config, log *zap.Logger) *Bot {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	return &Bot{
		eng:      eng,
		listings: listings,
		cfg:      cfg,
		log:      log,
		open:     make(map[string][]string),
	}
}

func (b *Bot) Run(ctx context.Context) {
	ticker := time.NewTicker(b.cfg.Interval)
	defer ticker.Stop()
	b.log.Info("market maker started", zap.Duration("interval", b.cfg.Interval))
	for {
		select {
		case <-ctx.Done():
			b.log.Info("market maker stopped")
			return
		case <-ticker.C:
			b.QuoteOnce(ctx)
		}
	}
}

// QuoteOnce runs a single quoting round: cancel last round's quotes, then
// post a bid and an ask spread around the current mid.
func (b *Bot) QuoteOnce(ctx context.Context) {
	for _, pair := range b.listings.MarketMakerPairs() {
		b.cancelQuotes(ctx, pair)

		mid := b.eng.MidPrice(pair)
		if !mid.GreaterThan(decimal.Zero) {
			continue
		}
		one := decimal.NewFromInt(1)
		b.quote(ctx, pair, domain.Buy, mid.Mul(one.Sub(b.cfg.Spread)))
		b.quote(ctx, pair, domain.Sell, mid.Mul(one.Add(b.cfg.Spread)))
	}
}

func (b *Bot) cancelQuotes(ctx context.Context, pair string) {
	for _, id := range b.open[pair] {
		// already-filled quotes are simply gone
		if _, err := b.eng.Cancel(ctx, id); err != nil && !errors.Is(err, core.ErrOrderNotFound) {
			b.log.Warn("cancel quote failed", zap.String("pair", pair), zap.String("order_id", id), zap.Error(err))
		}
	}
	b.open[pair] = nil
}

func (b *Bot) quote(ctx context.Context, pair string, side domain.Side, price decimal.Decimal) {
	res, err := b.eng.Submit(ctx, pair, b.cfg.Address, side, price, b.cfg.Size)
	if err != nil {
		b.log.Warn("quote failed", zap.String("pair", pair), zap.String("side", string(side)), zap.Error(err))
		return
	}
	if res.Status != domain.Filled {
		b.open[pair] = append(b.open[pair], res.Order.ID)
	}
}

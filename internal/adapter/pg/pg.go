package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkoval/dexbook/internal/domain"
	"github.com/mkoval/dexbook/internal/port"
)

var _ port.Repository = (*PgRepo)(nil)

// PgRepo is an append-mostly archive of orders, trades and listings. The
// engine never reads it back; losing a row loses history, not book state.
type PgRepo struct {
	pool *pgxpool.Pool
}

// call Close when finished working with the database.
func NewPgRepo(ctx context.Context, dsn string) (*PgRepo, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}
	return &PgRepo{pool: pool}, nil
}

func (p *PgRepo) Close(ctx context.Context) {
	if p.pool != nil {
		p.pool.Close()
	}
}

func (p *PgRepo) SaveOrder(ctx context.Context, o *domain.Order) error {
	if o == nil {
		return errors.New("nil order")
	}
	_, err := p.pool.Exec(ctx, `
INSERT INTO orders(id, pair, address, side, price, amount, filled, status, created_at)
VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id) DO UPDATE SET
  filled = EXCLUDED.filled,
  status = EXCLUDED.status
`, o.ID, o.Pair, o.Address, string(o.Side), o.Price, o.Amount, o.Filled, string(o.Status()), o.CreatedAt)
	return err
}

func (p *PgRepo) SaveTrade(ctx context.Context, t *domain.Trade) error {
	if t == nil {
		return errors.New("nil trade")
	}
	_, err := p.pool.Exec(ctx, `
INSERT INTO trades(id, pair, price, amount, side, taker_order, maker_order, taker_address, maker_address, executed_at)
VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (id) DO NOTHING
`, t.ID, t.Pair, t.Price, t.Amount, string(t.Side), t.TakerOrderID, t.MakerOrderID, t.TakerAddress, t.MakerAddress, t.Timestamp)
	return err
}

// CancelOrder marks an archived order as cancelled if it's still open.
func (p *PgRepo) CancelOrder(ctx context.Context, orderID string) error {
	res, err := p.pool.Exec(ctx, `
UPDATE orders
SET status = 'CANCELLED'
WHERE id = $1 AND status IN ('OPEN', 'PARTIALLY_FILLED')
`, orderID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return errors.New("order not found or already closed")
	}
	return nil
}

func (p *PgRepo) SavePair(ctx context.Context, pr *domain.Pair) error {
	if pr == nil {
		return errors.New("nil pair")
	}
	_, err := p.pool.Exec(ctx, `
INSERT INTO pairs(id, base_symbol, quote_symbol, base_address, quote_address, chain, market_maker, reference_price, created_at)
VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id) DO UPDATE SET
  market_maker = EXCLUDED.market_maker
`, pr.ID, pr.BaseSymbol, pr.QuoteSymbol, pr.BaseAddress, pr.QuoteAddress, pr.Chain, pr.MarketMaker, pr.ReferencePrice, pr.CreatedAt)
	return err
}

package port

import (
	"context"

	"github.com/mkoval/dexbook/internal/domain"
)

// Repository archives engine activity. Writes are best-effort from the
// service layer; the matching core never reads it on the hot path and a nil
// repository is valid.
type Repository interface {
	SaveOrder(ctx context.Context, o *domain.Order) error
	SaveTrade(ctx context.Context, t *domain.Trade) error
	CancelOrder(ctx context.Context, orderID string) error
	SavePair(ctx context.Context, p *domain.Pair) error
	Close(ctx context.Context)
}

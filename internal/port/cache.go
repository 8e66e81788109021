package port

import (
	"context"

	"github.com/mkoval/dexbook/internal/domain"
)

type Cache interface {
	SetBook(ctx context.Context, pair string, snap *domain.BookSnapshot) error
	GetBook(ctx context.Context, pair string) (*domain.BookSnapshot, error)
	// Invalidate drops the cached snapshot; the next read rebuilds it.
	Invalidate(ctx context.Context, pair string) error
}

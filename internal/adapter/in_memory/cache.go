package in_memory

import (
	"context"
	"sync"

	"github.com/mkoval/dexbook/internal/domain"
	"github.com/mkoval/dexbook/internal/port"
)

var _ port.Cache = (*Cache)(nil)

type Cache struct {
	mu    sync.Mutex
	store map[string]*domain.BookSnapshot
}

func NewCache() *Cache {
	return &Cache{store: make(map[string]*domain.BookSnapshot)}
}

func (c *Cache) SetBook(ctx context.Context, pair string, snap *domain.BookSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *snap
	c.store[pair] = &cp
	return nil
}

func (c *Cache) Invalidate(ctx context.Context, pair string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, pair)
	return nil
}

func (c *Cache) GetBook(ctx context.Context, pair string) (*domain.BookSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap, ok := c.store[pair]
	if !ok {
		return nil, nil
	}
	cp := *snap
	return &cp, nil
}

package core

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mkoval/dexbook/internal/domain"
)

// Depth aggregates each side by price in matching priority order (best
// price first) with a running cumulative size, for charting and spread.
func (b *OrderBook) Depth() *domain.Depth {
	b.mu.Lock()
	defer b.mu.Unlock()
	return &domain.Depth{
		Pair: b.pair,
		Bids: cumulative(b.bids),
		Asks: cumulative(b.asks),
	}
}

func cumulative(s *bookSide) []domain.DepthLevel {
	out := make([]domain.DepthLevel, 0, len(s.levels))
	running := decimal.Zero
	for _, lv := range s.levels {
		size := lv.total()
		running = running.Add(size)
		out = append(out, domain.DepthLevel{
			Price:      lv.price,
			Amount:     size,
			Cumulative: running,
		})
	}
	return out
}

// Snapshot builds the ladder view the UI renders: rows ordered farthest
// from mid first, the best price nearest the mid last, with the running
// cumulative size recomputed in display order so it grows toward the best
// price.
func (b *OrderBook) Snapshot() *domain.BookSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return &domain.BookSnapshot{
		Pair:      b.pair,
		Bids:      ladder(b.bids),
		Asks:      ladder(b.asks),
		MidPrice:  b.midPrice(),
		Timestamp: time.Now(),
	}
}

func ladder(s *bookSide) []domain.DepthLevel {
	out := make([]domain.DepthLevel, 0, len(s.levels))
	running := decimal.Zero
	for i := len(s.levels) - 1; i >= 0; i-- {
		lv := s.levels[i]
		size := lv.total()
		running = running.Add(size)
		out = append(out, domain.DepthLevel{
			Price:      lv.price,
			Amount:     size,
			Cumulative: running,
		})
	}
	return out
}

package core

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mkoval/dexbook/internal/domain"
)

// priceLevel holds the resting orders at one price, oldest first.
type priceLevel struct {
	price  decimal.Decimal
	orders []*domain.Order
}

func (l *priceLevel) total() decimal.Decimal {
	sum := decimal.Zero
	for _, o := range l.orders {
		sum = sum.Add(o.Remaining())
	}
	return sum
}

func (l *priceLevel) remove(orderID string) bool {
	for i, o := range l.orders {
		if o.ID == orderID {
			l.orders = append(l.orders[:i], l.orders[i+1:]...)
			return true
		}
	}
	return false
}

// bookSide keeps price levels sorted best-first: descending for bids,
// ascending for asks. Within a level orders queue FIFO.
type bookSide struct {
	side   domain.Side
	levels []*priceLevel
}

func newBookSide(side domain.Side) *bookSide {
	return &bookSide{side: side}
}

// search returns the slot where price sits, or where a new level for it
// would be inserted to keep best-first ordering.
func (s *bookSide) search(price decimal.Decimal) int {
	return sort.Search(len(s.levels), func(i int) bool {
		if s.side == domain.Buy {
			return s.levels[i].price.LessThanOrEqual(price)
		}
		return s.levels[i].price.GreaterThanOrEqual(price)
	})
}

func (s *bookSide) insert(o *domain.Order) {
	i := s.search(o.Price)
	if i < len(s.levels) && s.levels[i].price.Equal(o.Price) {
		s.levels[i].orders = append(s.levels[i].orders, o)
		return
	}
	lv := &priceLevel{price: o.Price, orders: []*domain.Order{o}}
	s.levels = append(s.levels, nil)
	copy(s.levels[i+1:], s.levels[i:])
	s.levels[i] = lv
}

func (s *bookSide) remove(o *domain.Order) bool {
	i := s.search(o.Price)
	if i >= len(s.levels) || !s.levels[i].price.Equal(o.Price) {
		return false
	}
	lv := s.levels[i]
	if !lv.remove(o.ID) {
		return false
	}
	if len(lv.orders) == 0 {
		s.levels = append(s.levels[:i], s.levels[i+1:]...)
	}
	return true
}

func (s *bookSide) best() (decimal.Decimal, bool) {
	if len(s.levels) == 0 {
		return decimal.Zero, false
	}
	return s.levels[0].price, true
}

func (s *bookSide) empty() bool {
	return len(s.levels) == 0
}

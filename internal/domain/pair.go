package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Pair is venue listing metadata. The matching core is parameterized by
// Pair.ID only and never reads the rest; the surrounding service owns it.
// Listings are never deleted, the MarketMaker flag is the only mutable field.
type Pair struct {
	ID             string
	BaseSymbol     string
	QuoteSymbol    string
	BaseAddress    string
	QuoteAddress   string
	Chain          string
	MarketMaker    bool
	ReferencePrice decimal.Decimal
	CreatedAt      time.Time
}

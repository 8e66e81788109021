package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DepthLevel is one aggregated price level: total resting size at the price
// plus the running cumulative size from the best price outward.
type DepthLevel struct {
	Price      decimal.Decimal
	Amount     decimal.Decimal
	Cumulative decimal.Decimal
}

// BookSnapshot is a read-only ladder view of one book. Bids and Asks are
// ordered for display: farthest price from mid first, best price last, with
// Cumulative increasing toward the best price.
type BookSnapshot struct {
	Pair      string
	Bids      []DepthLevel
	Asks      []DepthLevel
	MidPrice  decimal.Decimal
	Timestamp time.Time
}

// Depth is the charting projection: levels in matching priority order
// (best price first) with cumulative sums.
type Depth struct {
	Pair string
	Bids []DepthLevel
	Asks []DepthLevel
}

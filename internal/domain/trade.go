package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade is an immutable execution record. Price is always the maker's
// (resting) price; Side is the taker's side.
type Trade struct {
	ID           string
	Pair         string
	Price        decimal.Decimal
	Amount       decimal.Decimal
	Side         Side
	TakerOrderID string
	MakerOrderID string
	TakerAddress string
	MakerAddress string
	Timestamp    time.Time
}

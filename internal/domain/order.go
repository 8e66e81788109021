package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Side string
type OrderStatus string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"

	Open            OrderStatus = "OPEN"
	PartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	Filled          OrderStatus = "FILLED"
	Cancelled       OrderStatus = "CANCELLED"
)

// Order is a single intent to trade. Price and Amount are fixed at creation;
// only Filled moves, and only upward. An order rests in a book exactly while
// Filled < Amount.
type Order struct {
	ID        string
	Pair      string
	Address   string
	Side      Side
	Price     decimal.Decimal
	Amount    decimal.Decimal
	Filled    decimal.Decimal
	CreatedAt time.Time
}

func (o *Order) Remaining() decimal.Decimal {
	return o.Amount.Sub(o.Filled)
}

func (o *Order) IsFilled() bool {
	return o.Filled.GreaterThanOrEqual(o.Amount)
}

// Status derives the order state from its fill progress.
func (o *Order) Status() OrderStatus {
	switch {
	case o.IsFilled():
		return Filled
	case o.Filled.GreaterThan(decimal.Zero):
		return PartiallyFilled
	default:
		return Open
	}
}

// NormalizeAddress lowercases a self-reported owner address so lookups by
// participant are case-insensitive.
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// Opposite returns the side an incoming order matches against.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type SubmitOrderRequest struct {
	Pair    string          `json:"pair" binding:"required"`
	Address string          `json:"address" binding:"required"`
	Side    string          `json:"side" binding:"required"`
	Price   decimal.Decimal `json:"price" binding:"required"`
	Amount  decimal.Decimal `json:"amount" binding:"required"`
}

type SubmitOrderResponse struct {
	Order  Order   `json:"order"`
	Trades []Trade `json:"trades"`
	Status string  `json:"status"`
}

type CancelOrderRequest struct {
	OrderID string `json:"order_id" binding:"required"`
}

type CancelOrderResponse struct {
	OrderID  string `json:"order_id"`
	Canceled bool   `json:"canceled"`
}

type Order struct {
	ID        string          `json:"id"`
	Pair      string          `json:"pair"`
	Address   string          `json:"address"`
	Side      string          `json:"side"`
	Price     decimal.Decimal `json:"price"`
	Amount    decimal.Decimal `json:"amount"`
	Filled    decimal.Decimal `json:"filled"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

type Trade struct {
	ID           string          `json:"id"`
	Pair         string          `json:"pair"`
	Price        decimal.Decimal `json:"price"`
	Amount       decimal.Decimal `json:"amount"`
	Side         string          `json:"side"`
	TakerOrderID string          `json:"taker_order_id"`
	MakerOrderID string          `json:"maker_order_id"`
	TakerAddress string          `json:"taker_address"`
	MakerAddress string          `json:"maker_address"`
	Timestamp    time.Time       `json:"timestamp"`
}

type BookLevel struct {
	Price      decimal.Decimal `json:"price"`
	Amount     decimal.Decimal `json:"amount"`
	Cumulative decimal.Decimal `json:"cumulative"`
}

type OrderbookResponse struct {
	Pair      string          `json:"pair"`
	Bids      []BookLevel     `json:"bids"`
	Asks      []BookLevel     `json:"asks"`
	MidPrice  decimal.Decimal `json:"mid_price"`
	Timestamp time.Time       `json:"timestamp"`
}

type DepthResponse struct {
	Pair string      `json:"pair"`
	Bids []BookLevel `json:"bids"`
	Asks []BookLevel `json:"asks"`
}

type TradesResponse struct {
	Trades []Trade `json:"trades"`
}

type Pair struct {
	ID             string          `json:"id"`
	BaseSymbol     string          `json:"base_symbol"`
	QuoteSymbol    string          `json:"quote_symbol"`
	BaseAddress    string          `json:"base_address,omitempty"`
	QuoteAddress   string          `json:"quote_address,omitempty"`
	Chain          string          `json:"chain,omitempty"`
	MarketMaker    bool            `json:"market_maker"`
	ReferencePrice decimal.Decimal `json:"reference_price"`
	CreatedAt      time.Time       `json:"created_at"`
}

type CreatePairRequest struct {
	ID             string          `json:"id"`
	BaseSymbol     string          `json:"base_symbol" binding:"required"`
	QuoteSymbol    string          `json:"quote_symbol" binding:"required"`
	BaseAddress    string          `json:"base_address"`
	QuoteAddress   string          `json:"quote_address"`
	Chain          string          `json:"chain"`
	MarketMaker    bool            `json:"market_maker"`
	ReferencePrice decimal.Decimal `json:"reference_price"`
}

type ToggleMarketMakerRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

type PlaceBetRequest struct {
	Pair            string          `json:"pair" binding:"required"`
	Address         string          `json:"address" binding:"required"`
	Direction       string          `json:"direction" binding:"required"`
	Stake           decimal.Decimal `json:"stake" binding:"required"`
	DurationSeconds int64           `json:"duration_seconds" binding:"required"`
}

type Bet struct {
	ID        string          `json:"id"`
	Pair      string          `json:"pair"`
	Address   string          `json:"address"`
	Direction string          `json:"direction"`
	Stake     decimal.Decimal `json:"stake"`
	EntryMid  decimal.Decimal `json:"entry_mid"`
	ExitMid   decimal.Decimal `json:"exit_mid"`
	Payout    decimal.Decimal `json:"payout"`
	Status    string          `json:"status"`
	PlacedAt  time.Time       `json:"placed_at"`
	ResolveAt time.Time       `json:"resolve_at"`
}

// EventMessage is the websocket wire shape for engine events; Type
// discriminates, Pair lets clients filter.
type EventMessage struct {
	Type    string  `json:"type"`
	Pair    string  `json:"pair,omitempty"`
	Trades  []Trade `json:"trades,omitempty"`
	Order   *Order  `json:"order,omitempty"`
	OrderID string  `json:"order_id,omitempty"`
}

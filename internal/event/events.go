package event

import "github.com/mkoval/dexbook/internal/domain"

type Type string

const (
	TypeOrderBook Type = "orderbook"
	TypeTrades    Type = "trades"
	TypeOrder     Type = "order"
	TypeCancel    Type = "cancel"
)

// Event is one book/trade/order/cancel delta. The transport layer decides
// the wire shape; subscribers filter by Pair client-side.
type Event struct {
	Type    Type
	Pair    string
	Trades  []*domain.Trade
	Order   *domain.Order
	OrderID string
}

func BookChanged(pair string) Event {
	return Event{Type: TypeOrderBook, Pair: pair}
}

func TradesExecuted(pair string, trades []*domain.Trade) Event {
	return Event{Type: TypeTrades, Pair: pair, Trades: trades}
}

func OrderPlaced(o *domain.Order) Event {
	return Event{Type: TypeOrder, Pair: o.Pair, Order: o}
}

func OrderCanceled(pair, orderID string) Event {
	return Event{Type: TypeCancel, Pair: pair, OrderID: orderID}
}

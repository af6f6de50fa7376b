package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Side is the order direction.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderState is the lifecycle stage of a driven order.
type OrderState string

const (
	OrderBuilt     OrderState = "BUILT"
	OrderSubmitted OrderState = "SUBMITTED"
	OrderConfirmed OrderState = "CONFIRMED"
	OrderRepriced  OrderState = "REPRICED"
	OrderFilled    OrderState = "FILLED"
)

// OrderTicket is a limit order as the engine hands it to the gateway.
// Once submitted only Price may change, and only through a reprice.
type OrderTicket struct {
	Side     Side
	Conid    int64
	Symbol   string
	Exchange string
	Price    decimal.Decimal
	Quantity decimal.Decimal
	// ClientRef deduplicates the order on the broker side if a submit
	// response is lost in transit.
	ClientRef string
}

// Notional is quantity × price, the capital weight of the ticket.
func (t OrderTicket) Notional() decimal.Decimal {
	return t.Quantity.Mul(t.Price)
}

// Describe renders the ticket for logs and error messages.
func (t OrderTicket) Describe() string {
	return fmt.Sprintf("%s %s of %s @ %s", t.Side, t.Quantity, t.Symbol, t.Price)
}

// OrderAck is the broker's acknowledgment of a submitted order. The what-if
// endpoint returns the same shape, so dry runs exercise identical code.
type OrderAck struct {
	OrderID string
	Message string
}

// OrderStatus is the broker-reported state of a pending order.
type OrderStatus struct {
	OrderID string
	Status  string
}

// Filled reports whether the broker considers the order done.
func (s OrderStatus) Filled() bool {
	return s.Status == "Filled"
}

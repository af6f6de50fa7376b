package ibkr

// orders.go — the two ports.OrderGateway implementations.
//
// LiveOrders posts real orders; WhatIfOrders posts to the non-committing
// validation endpoint. Both return the same acknowledgment shape, so the
// lifecycle driver runs identical code either way. Order calls are never
// retried: replaying a lost submit could double an order.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/rebalancer/internal/domain"
)

// orderPayload is the JSON order body for the iserver order endpoints.
type orderPayload struct {
	Conid    int64       `json:"conid"`
	Side     string      `json:"side"`
	Ticker   string      `json:"ticker"`
	Price    json.Number `json:"price"`
	Quantity json.Number `json:"quantity"`
	// LMT/DAY only: the calculator already picked the limit price, and a
	// resting day order is re-priced by the driver if the market moves.
	OrderType string `json:"orderType"`
	TIF       string `json:"tif"`
	// Reject fills outside regular trading hours.
	OutsideRTH bool `json:"outsideRth"`
	// Let the broker reject sizes/prices out of line with an orderly market.
	UseAdaptive bool   `json:"useAdaptive"`
	COID        string `json:"cOID,omitempty"`
}

func payloadFor(t domain.OrderTicket) orderPayload {
	return orderPayload{
		Conid:       t.Conid,
		Side:        string(t.Side),
		Ticker:      t.Symbol,
		Price:       json.Number(t.Price.String()),
		Quantity:    json.Number(t.Quantity.String()),
		OrderType:   "LMT",
		TIF:         "DAY",
		OutsideRTH:  false,
		UseAdaptive: true,
		COID:        t.ClientRef,
	}
}

// ackRow is one element of the submit response. Depending on whether the
// gateway wants a confirmation round-trip, it carries a reply id or an
// order id.
type ackRow struct {
	ID      string   `json:"id"`
	OrderID string   `json:"order_id"`
	Message []string `json:"message"`
}

func parseAck(body []byte) (domain.OrderAck, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var rows []ackRow
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return domain.OrderAck{}, fmt.Errorf("parse ack: %w", err)
		}
		if len(rows) == 0 {
			return domain.OrderAck{}, fmt.Errorf("parse ack: empty response")
		}
		row := rows[0]
		id := row.ID
		if id == "" {
			id = row.OrderID
		}
		msg := ""
		if len(row.Message) > 0 {
			msg = row.Message[0]
		}
		return domain.OrderAck{OrderID: id, Message: msg}, nil
	}
	// What-if replies are a single object with no id.
	return domain.OrderAck{Message: string(trimmed)}, nil
}

// LiveOrders posts committing orders for the client's selected account.
type LiveOrders struct {
	c *Client
}

func NewLiveOrders(c *Client) *LiveOrders {
	return &LiveOrders{c: c}
}

func (g *LiveOrders) Committing() bool { return true }

// Submit posts the order. A non-ok response is fatal for the run.
func (g *LiveOrders) Submit(ctx context.Context, ticket domain.OrderTicket) (domain.OrderAck, error) {
	return submitTo(ctx, g.c, "/iserver/account/"+g.c.accountID+"/orders", ticket)
}

// Confirm acknowledges the gateway's reply message, releasing the order
// to the market.
func (g *LiveOrders) Confirm(ctx context.Context, orderID string, ticket domain.OrderTicket) error {
	status, body, err := g.c.postOnce(ctx, "/iserver/reply/"+orderID, map[string]bool{"confirmed": true})
	if err != nil {
		return fmt.Errorf("ibkr.Confirm: %s: %w", ticket.Describe(), err)
	}
	if status >= 400 {
		return domain.OrderConfirmError{Order: ticket.Describe(), StatusCode: status, Body: string(body)}
	}
	slog.Debug("ibkr: order confirmed", "order_id", orderID)
	return nil
}

type statusReply struct {
	OrderStatus string `json:"order_status"`
}

// Status reports the broker-side state of a pending order.
func (g *LiveOrders) Status(ctx context.Context, orderID string) (domain.OrderStatus, error) {
	var reply statusReply
	if err := g.c.get(ctx, "/iserver/account/order/status/"+orderID, nil, &reply); err != nil {
		return domain.OrderStatus{}, fmt.Errorf("ibkr.Status: order %s: %w", orderID, err)
	}
	return domain.OrderStatus{OrderID: orderID, Status: reply.OrderStatus}, nil
}

// ModifyPrice moves the resting order's limit price. Everything else in
// the payload must be restated or the gateway rejects the modification.
func (g *LiveOrders) ModifyPrice(ctx context.Context, orderID string, ticket domain.OrderTicket, price decimal.Decimal) error {
	payload := payloadFor(ticket)
	payload.Price = json.Number(price.String())
	payload.COID = ""

	status, body, err := g.c.postOnce(ctx, "/iserver/account/"+g.c.accountID+"/order/"+orderID, payload)
	if err != nil {
		return fmt.Errorf("ibkr.ModifyPrice: %s: %w", ticket.Describe(), err)
	}
	if status >= 400 {
		return fmt.Errorf("ibkr.ModifyPrice: %s: [%d] %s", ticket.Describe(), status, string(body))
	}
	return nil
}

// WhatIfOrders posts every order to the validation endpoint. Nothing
// reaches the market, so the rest of the lifecycle has nothing to do.
type WhatIfOrders struct {
	c *Client
}

func NewWhatIfOrders(c *Client) *WhatIfOrders {
	return &WhatIfOrders{c: c}
}

func (g *WhatIfOrders) Committing() bool { return false }

func (g *WhatIfOrders) Submit(ctx context.Context, ticket domain.OrderTicket) (domain.OrderAck, error) {
	return submitTo(ctx, g.c, "/iserver/account/"+g.c.accountID+"/orders/whatif", ticket)
}

func (g *WhatIfOrders) Confirm(ctx context.Context, orderID string, ticket domain.OrderTicket) error {
	return fmt.Errorf("ibkr.WhatIfOrders: %s: what-if orders are never confirmed", ticket.Describe())
}

func (g *WhatIfOrders) Status(ctx context.Context, orderID string) (domain.OrderStatus, error) {
	return domain.OrderStatus{}, fmt.Errorf("ibkr.WhatIfOrders: what-if orders have no status")
}

func (g *WhatIfOrders) ModifyPrice(ctx context.Context, orderID string, ticket domain.OrderTicket, price decimal.Decimal) error {
	return fmt.Errorf("ibkr.WhatIfOrders: %s: what-if orders are never repriced", ticket.Describe())
}

func submitTo(ctx context.Context, c *Client, path string, ticket domain.OrderTicket) (domain.OrderAck, error) {
	body := map[string][]orderPayload{"orders": {payloadFor(ticket)}}
	status, raw, err := c.postOnce(ctx, path, body)
	if err != nil {
		return domain.OrderAck{}, fmt.Errorf("ibkr.Submit: %s: %w", ticket.Describe(), err)
	}
	if status >= 400 {
		return domain.OrderAck{}, domain.OrderSubmitError{Order: ticket.Describe(), StatusCode: status, Body: string(raw)}
	}
	ack, err := parseAck(raw)
	if err != nil {
		return domain.OrderAck{}, fmt.Errorf("ibkr.Submit: %s: %w", ticket.Describe(), err)
	}
	return ack, nil
}

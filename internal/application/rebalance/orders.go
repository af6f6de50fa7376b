package rebalance

// orders.go — the order lifecycle driver.
//
// One order at a time: Built → Submitted → Confirmed → Filled, with a
// Repriced excursion whenever the market moves away from a resting limit
// order. The driver owns the ticket exclusively from submission to
// terminal state; nothing else mutates a submitted order.

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/rebalancer/internal/domain"
	"github.com/alejandrodnm/rebalancer/internal/ports"
)

const defaultPollInterval = 5 * time.Second

// Driver drives orders to terminal state against an injected gateway.
// The gateway decides whether orders commit (live) or not (what-if).
type Driver struct {
	gateway  ports.OrderGateway
	quotes   *Quotes
	notifier ports.Notifier

	pollInterval time.Duration
	// maxWait bounds the fill wait; zero preserves the wait-forever
	// behavior for operators who want it.
	maxWait time.Duration
}

// NewDriver creates a Driver. pollInterval <= 0 selects the default 5s.
func NewDriver(gateway ports.OrderGateway, quotes *Quotes, notifier ports.Notifier, pollInterval, maxWait time.Duration) *Driver {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &Driver{
		gateway:      gateway,
		quotes:       quotes,
		notifier:     notifier,
		pollInterval: pollInterval,
		maxWait:      maxWait,
	}
}

// Execute drives one ticket to terminal state and returns its audit
// record. Submit and confirm failures are fatal and never retried:
// replaying either could duplicate a live order.
func (d *Driver) Execute(ctx context.Context, ticket domain.OrderTicket) (domain.OrderRecord, error) {
	ticket.ClientRef = uuid.NewString()
	rec := domain.OrderRecord{
		ClientRef: ticket.ClientRef,
		Side:      ticket.Side,
		Symbol:    ticket.Symbol,
		Quantity:  ticket.Quantity,
		Price:     ticket.Price,
		State:     domain.OrderBuilt,
		PlacedAt:  time.Now().UTC(),
	}

	ack, err := d.gateway.Submit(ctx, ticket)
	if err != nil {
		return rec, err
	}
	rec.OrderID = ack.OrderID
	rec.State = domain.OrderSubmitted
	d.notify(ctx, ticket, domain.OrderSubmitted)
	slog.Info("rebalance: order submitted", "order", ticket.Describe(), "order_id", ack.OrderID)

	if !d.gateway.Committing() {
		// What-if acknowledgment is the terminal state of a dry run.
		slog.Info("rebalance: dry run, order not sent to market", "order", ticket.Describe())
		return rec, nil
	}

	if err := d.gateway.Confirm(ctx, ack.OrderID, ticket); err != nil {
		return rec, err
	}
	rec.State = domain.OrderConfirmed
	d.notify(ctx, ticket, domain.OrderConfirmed)
	slog.Info("rebalance: order confirmed", "order", ticket.Describe(), "order_id", ack.OrderID)

	if err := d.pollToFill(ctx, ack.OrderID, &ticket, &rec); err != nil {
		return rec, err
	}
	rec.State = domain.OrderFilled
	rec.Price = ticket.Price
	d.notify(ctx, ticket, domain.OrderFilled)
	slog.Info("rebalance: order filled",
		"order", ticket.Describe(), "order_id", ack.OrderID, "reprices", rec.Reprices)
	return rec, nil
}

// pollToFill waits for the fill, repricing the resting order whenever the
// side-relevant price moves. Repricing never resets lifecycle state.
func (d *Driver) pollToFill(ctx context.Context, orderID string, ticket *domain.OrderTicket, rec *domain.OrderRecord) error {
	var deadline time.Time
	if d.maxWait > 0 {
		deadline = time.Now().Add(d.maxWait)
	}

	for {
		select {
		case <-time.After(d.pollInterval):
		case <-ctx.Done():
			return ctx.Err()
		}

		status, err := d.gateway.Status(ctx, orderID)
		if err != nil {
			return err
		}
		if status.Filled() {
			return nil
		}
		slog.Debug("rebalance: order pending",
			"order", ticket.Describe(), "order_id", orderID, "status", status.Status)

		if err := d.repriceIfMoved(ctx, orderID, ticket, rec); err != nil {
			return err
		}

		if !deadline.IsZero() && time.Now().After(deadline) {
			return fmt.Errorf("rebalance: order not filled within %s: %s (order_id=%s)",
				d.maxWait, ticket.Describe(), orderID)
		}
	}
}

// repriceIfMoved fetches a fresh, cache-bypassing quote and chases the
// market with a single price modification when it moved.
func (d *Driver) repriceIfMoved(ctx context.Context, orderID string, ticket *domain.OrderTicket, rec *domain.OrderRecord) error {
	fresh, err := d.quotes.Refresh(ctx, ticket.Conid, ticket.Exchange, ticket.Symbol)
	if err != nil {
		return err
	}

	// Sells chase the ask, buys chase the bid.
	price := fresh.Ask
	if ticket.Side == domain.SideBuy {
		price = fresh.Bid
	}
	if price.Equal(ticket.Price) {
		return nil
	}

	slog.Info("rebalance: repricing order",
		"order", ticket.Describe(), "order_id", orderID, "new_price", price)
	if err := d.gateway.ModifyPrice(ctx, orderID, *ticket, price); err != nil {
		return err
	}
	ticket.Price = price
	rec.Reprices++
	d.notify(ctx, *ticket, domain.OrderRepriced)
	return nil
}

func (d *Driver) notify(ctx context.Context, ticket domain.OrderTicket, state domain.OrderState) {
	if d.notifier == nil {
		return
	}
	if err := d.notifier.NotifyOrder(ctx, ticket, state); err != nil {
		slog.Warn("rebalance: notifier error", "err", err)
	}
}

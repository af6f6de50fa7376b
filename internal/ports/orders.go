package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/rebalancer/internal/domain"
)

// OrderGateway submits and manages orders at the broker.
//
// Dry-run is a gateway implementation, not a flag: the live gateway posts
// real orders, the what-if gateway posts to the broker's validation
// endpoint which returns the same acknowledgment shape. The lifecycle
// driver cannot tell them apart.
type OrderGateway interface {
	// Submit posts the order and returns the broker-assigned id.
	Submit(ctx context.Context, ticket domain.OrderTicket) (domain.OrderAck, error)

	// Confirm acknowledges the broker's reply message for the given id.
	// The ticket is only used for error context.
	Confirm(ctx context.Context, orderID string, ticket domain.OrderTicket) error

	// Status reports the order's current broker-side state.
	Status(ctx context.Context, orderID string) (domain.OrderStatus, error)

	// ModifyPrice moves the pending order's limit price.
	ModifyPrice(ctx context.Context, orderID string, ticket domain.OrderTicket, price decimal.Decimal) error

	// Committing reports whether orders placed through this gateway
	// reach the market. What-if gateways return false, which lets the
	// engine skip polling for fills that will never come.
	Committing() bool
}

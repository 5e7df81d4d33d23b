// Package orders talks to the remote order table: placing orders from the
// cart, listing and administering them, and reacting to pushed status
// changes.
package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/storefront/internal/cart"
)

// Status is an order's fulfilment state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// Statuses lists every status in fulfilment order.
var Statuses = []Status{StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled}

// ParseStatus accepts only the known status literals.
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

// DeliveryMode is how the order reaches the shopper.
type DeliveryMode string

const (
	DeliveryModeDelivery DeliveryMode = "delivery"
	DeliveryModePickup   DeliveryMode = "pickup"
)

// ParseDeliveryMode accepts "delivery" and "pickup". Empty means pickup,
// the mode a new cart starts in.
func ParseDeliveryMode(s string) (DeliveryMode, error) {
	switch DeliveryMode(s) {
	case DeliveryModeDelivery:
		return DeliveryModeDelivery, nil
	case "", DeliveryModePickup:
		return DeliveryModePickup, nil
	default:
		return "", fmt.Errorf("unknown delivery mode %q: must be delivery or pickup", s)
	}
}

// LineItem is a cart item as recorded on an order.
type LineItem struct {
	cart.Item
	DeliveryMode   DeliveryMode `json:"delivery_mode"`
	PickupLocation string       `json:"pickup_location,omitempty"`
}

// Order is a row of the remote orders table.
type Order struct {
	ID         string     `json:"id"`
	CreatedAt  time.Time  `json:"created_at"`
	UserID     string     `json:"user_id"`
	Items      []LineItem `json:"items"`
	TotalPrice float64    `json:"total_price"`
	Status     Status     `json:"status"`
}

// ShortID is the first 8 characters of the id, as shown to shoppers.
func (o Order) ShortID() string {
	if len(o.ID) <= 8 {
		return o.ID
	}
	return o.ID[:8]
}

// DeliveryMode is taken from the first line item. Rows without one read as
// delivery.
func (o Order) DeliveryMode() DeliveryMode {
	if len(o.Items) == 0 || o.Items[0].DeliveryMode == "" {
		return DeliveryModeDelivery
	}
	return o.Items[0].DeliveryMode
}

// PickupLocation is the store address of a pickup order.
func (o Order) PickupLocation() string {
	if len(o.Items) == 0 {
		return ""
	}
	return o.Items[0].PickupLocation
}

// NewOrder is the payload of an insert.
type NewOrder struct {
	UserID     string     `json:"user_id"`
	Items      []LineItem `json:"items"`
	TotalPrice float64    `json:"total_price"`
	Status     Status     `json:"status"`
}

// Filter narrows List. An empty UserID lists every order.
type Filter struct {
	UserID string
}

// ErrNotFound is returned by Get for an unknown id.
var ErrNotFound = errors.New("order not found")

// Subscription is a live feed of order changes.
type Subscription interface {
	// Done is closed when the feed stops, whether by Close or a failure.
	Done() <-chan struct{}
	// Err reports why the feed stopped; nil after a requested Close.
	Err() error
	Close() error
}

// Service is the remote order table.
type Service interface {
	Insert(ctx context.Context, o NewOrder) (Order, error)
	// List returns orders newest first.
	List(ctx context.Context, f Filter) ([]Order, error)
	Get(ctx context.Context, id string) (Order, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	Delete(ctx context.Context, id string) error
	// Subscribe delivers UPDATE events on userID's orders to fn until the
	// subscription is closed.
	Subscribe(ctx context.Context, userID string, fn func(Order)) (Subscription, error)
}

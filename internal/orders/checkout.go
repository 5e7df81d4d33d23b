package orders

import (
	"context"
	"errors"

	"github.com/roach88/storefront/internal/cart"
)

var (
	ErrEmptyCart   = errors.New("cart is empty")
	ErrNotSignedIn = errors.New("sign in to place an order")
)

// Cart is the part of cart.Store checkout needs.
type Cart interface {
	Items() []cart.Item
	Total() float64
	ClearCart()
}

// Checkout turns the cart into a remote order.
type Checkout struct {
	svc    Service
	cart   Cart
	pickup string
}

// NewCheckout creates a Checkout. pickupAddress is recorded on pickup orders.
func NewCheckout(svc Service, c Cart, pickupAddress string) *Checkout {
	return &Checkout{svc: svc, cart: c, pickup: pickupAddress}
}

// PlaceOrder inserts the current cart as a pending order for userID and
// clears the cart on success. On failure the cart is left intact and the
// service error is returned.
func (c *Checkout) PlaceOrder(ctx context.Context, userID string, mode DeliveryMode) (Order, error) {
	if userID == "" {
		return Order{}, ErrNotSignedIn
	}
	mode, err := ParseDeliveryMode(string(mode))
	if err != nil {
		return Order{}, err
	}

	items := c.cart.Items()
	if len(items) == 0 {
		return Order{}, ErrEmptyCart
	}

	lines := make([]LineItem, len(items))
	for i, it := range items {
		lines[i] = LineItem{Item: it, DeliveryMode: mode}
		if mode == DeliveryModePickup {
			lines[i].PickupLocation = c.pickup
		}
	}

	order, err := c.svc.Insert(ctx, NewOrder{
		UserID:     userID,
		Items:      lines,
		TotalPrice: cart.Total(items),
		Status:     StatusPending,
	})
	if err != nil {
		return Order{}, err
	}

	c.cart.ClearCart()
	return order, nil
}

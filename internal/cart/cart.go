// Package cart owns the shopping-cart line items and their derived total.
package cart

import (
	"encoding/json"

	"github.com/roach88/storefront/internal/state"
)

// Key is the persisted key of the cart snapshot.
const Key = "@cart"

// Item is one cart line item. At most one Item exists per ID and Quantity
// is never below 1 in stored state.
type Item struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    float64         `json:"price"`
	Image    json.RawMessage `json:"image,omitempty"`
	Size     string          `json:"size,omitempty"`
	Quantity int             `json:"quantity"`
}

// LineTotal returns Price * Quantity.
func (i Item) LineTotal() float64 {
	return i.Price * float64(i.Quantity)
}

// Product carries the display fields copied into the cart at add time.
type Product struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price float64         `json:"price"`
	Image json.RawMessage `json:"image,omitempty"`
	Size  string          `json:"size,omitempty"`
}

// Store is the cart state container.
type Store struct {
	c *state.Container[[]Item]
}

// New creates a cart store persisting into kv. Call Init to load.
func New(kv state.KV, opts ...state.Option) *Store {
	return &Store{c: state.New[[]Item](kv, Key, state.JSONCodec[[]Item]{}, []Item{}, opts...)}
}

// Container exposes the lifecycle (Init, WaitReady, Flush, Close).
func (s *Store) Container() *state.Container[[]Item] {
	return s.c
}

// AddToCart increments the quantity of an existing line item with the same
// ID, or appends a new line item with quantity 1. The price is captured now
// and not re-read later.
func (s *Store) AddToCart(p Product) {
	s.c.Update(func(items []Item) ([]Item, bool) {
		next := make([]Item, 0, len(items)+1)
		found := false
		for _, it := range items {
			if it.ID == p.ID {
				it.Quantity++
				found = true
			}
			next = append(next, it)
		}
		if !found {
			next = append(next, Item{
				ID:       p.ID,
				Name:     p.Name,
				Price:    p.Price,
				Image:    p.Image,
				Size:     p.Size,
				Quantity: 1,
			})
		}
		return next, true
	})
}

// RemoveFromCart deletes the line item with id. Unknown ids are ignored.
func (s *Store) RemoveFromCart(id string) {
	s.c.Update(func(items []Item) ([]Item, bool) {
		return without(items, id)
	})
}

// UpdateQuantity sets the quantity of id. A quantity below 1 removes the
// line item. Unknown ids are ignored.
func (s *Store) UpdateQuantity(id string, quantity int) {
	if quantity < 1 {
		s.RemoveFromCart(id)
		return
	}
	s.c.Update(func(items []Item) ([]Item, bool) {
		idx := indexOf(items, id)
		if idx < 0 || items[idx].Quantity == quantity {
			return items, false
		}
		next := make([]Item, len(items))
		copy(next, items)
		next[idx].Quantity = quantity
		return next, true
	})
}

// ClearCart empties the cart.
func (s *Store) ClearCart() {
	s.c.Update(func(items []Item) ([]Item, bool) {
		return []Item{}, len(items) > 0
	})
}

// Items returns a copy of the line items in insertion order.
func (s *Store) Items() []Item {
	var out []Item
	s.c.View(func(items []Item) {
		out = make([]Item, len(items))
		copy(out, items)
	})
	return out
}

// Total is the sum of price*quantity over the current items, recomputed on
// every call.
func (s *Store) Total() float64 {
	var total float64
	s.c.View(func(items []Item) {
		total = Total(items)
	})
	return total
}

// Count is the total number of units in the cart.
func (s *Store) Count() int {
	var n int
	s.c.View(func(items []Item) {
		for _, it := range items {
			n += it.Quantity
		}
	})
	return n
}

// Total sums LineTotal over items.
func Total(items []Item) float64 {
	var sum float64
	for _, it := range items {
		sum += it.LineTotal()
	}
	return sum
}

func indexOf(items []Item, id string) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func without(items []Item, id string) ([]Item, bool) {
	idx := indexOf(items, id)
	if idx < 0 {
		return items, false
	}
	next := make([]Item, 0, len(items)-1)
	next = append(next, items[:idx]...)
	return append(next, items[idx+1:]...), true
}

// Package favorites owns the deduplicated set of liked products.
package favorites

import (
	"encoding/json"

	"github.com/roach88/storefront/internal/state"
)

// Key is the persisted key of the favorites snapshot.
const Key = "@favorites"

// Product is a liked product. At most one entry exists per ID.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       float64         `json:"price"`
	Image       json.RawMessage `json:"image,omitempty"`
	Category    string          `json:"category,omitempty"`
	Description string          `json:"description,omitempty"`
	MRP         *float64        `json:"mrp,omitempty"`
	Offer       string          `json:"offer,omitempty"`
	Size        string          `json:"size,omitempty"`
}

// Store is the favorites state container.
type Store struct {
	c *state.Container[[]Product]
}

// New creates a favorites store persisting into kv. Call Init to load.
func New(kv state.KV, opts ...state.Option) *Store {
	return &Store{c: state.New[[]Product](kv, Key, state.JSONCodec[[]Product]{}, []Product{}, opts...)}
}

// Container exposes the lifecycle (Init, WaitReady, Flush, Close).
func (s *Store) Container() *state.Container[[]Product] {
	return s.c
}

// AddToFavorites appends p unless its ID is already present.
func (s *Store) AddToFavorites(p Product) {
	s.c.Update(func(list []Product) ([]Product, bool) {
		if contains(list, p.ID) {
			return list, false
		}
		next := make([]Product, 0, len(list)+1)
		next = append(next, list...)
		return append(next, p), true
	})
}

// RemoveFromFavorites removes id if present.
func (s *Store) RemoveFromFavorites(id string) {
	s.c.Update(func(list []Product) ([]Product, bool) {
		next := make([]Product, 0, len(list))
		for _, p := range list {
			if p.ID != id {
				next = append(next, p)
			}
		}
		return next, len(next) != len(list)
	})
}

// Toggle adds p when absent and removes it when present. Returns whether p
// is a favorite afterwards.
func (s *Store) Toggle(p Product) bool {
	if s.IsFavorite(p.ID) {
		s.RemoveFromFavorites(p.ID)
		return false
	}
	s.AddToFavorites(p)
	return true
}

// IsFavorite reports whether id is in the set.
func (s *Store) IsFavorite(id string) bool {
	var ok bool
	s.c.View(func(list []Product) {
		ok = contains(list, id)
	})
	return ok
}

// Favorites returns a copy of the set in insertion order.
func (s *Store) Favorites() []Product {
	var out []Product
	s.c.View(func(list []Product) {
		out = make([]Product, len(list))
		copy(out, list)
	})
	return out
}

func contains(list []Product, id string) bool {
	for _, p := range list {
		if p.ID == id {
			return true
		}
	}
	return false
}

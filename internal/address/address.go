// Package address owns the list of saved delivery addresses.
package address

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/storefront/internal/state"
)

// Key is the persisted key of the address book snapshot.
const Key = "@addresses"

// Type labels an address.
type Type string

const (
	TypeHome  Type = "Home"
	TypeWork  Type = "Work"
	TypeOther Type = "Other"
)

// ParseType accepts the exact labels Home, Work and Other.
func ParseType(s string) (Type, error) {
	switch t := Type(s); t {
	case TypeHome, TypeWork, TypeOther:
		return t, nil
	default:
		return "", fmt.Errorf("unknown address type %q: must be Home, Work or Other", s)
	}
}

// Fields are the user-entered parts of an address. The caller checks that
// every field is non-empty before calling AddAddress.
type Fields struct {
	Name   string `json:"name"`
	Street string `json:"street"`
	City   string `json:"city"`
	Zip    string `json:"zip"`
	Phone  string `json:"phone"`
	Type   Type   `json:"type"`
}

// Address is a saved delivery address. ID is assigned once at creation.
type Address struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Street string `json:"street"`
	City   string `json:"city"`
	Zip    string `json:"zip"`
	Phone  string `json:"phone"`
	Type   Type   `json:"type"`
}

// Store is the address book state container.
type Store struct {
	c   *state.Container[[]Address]
	ids IDGenerator
}

// New creates an address store persisting into kv. Call Init to load.
// A nil ids uses UUIDv7Generator.
func New(kv state.KV, ids IDGenerator, opts ...state.Option) *Store {
	if ids == nil {
		ids = UUIDv7Generator{}
	}
	return &Store{
		c:   state.New[[]Address](kv, Key, state.JSONCodec[[]Address]{}, []Address{}, opts...),
		ids: ids,
	}
}

// Container exposes the lifecycle (Init, WaitReady, Flush, Close).
func (s *Store) Container() *state.Container[[]Address] {
	return s.c
}

// AddAddress creates an Address with a fresh id from f and appends it.
// Text fields are trimmed and NFC-normalized.
func (s *Store) AddAddress(f Fields) Address {
	a := Address{
		Name:   clean(f.Name),
		Street: clean(f.Street),
		City:   clean(f.City),
		Zip:    clean(f.Zip),
		Phone:  clean(f.Phone),
		Type:   f.Type,
	}

	s.c.Update(func(list []Address) ([]Address, bool) {
		a.ID = s.uniqueID(list)
		next := make([]Address, 0, len(list)+1)
		next = append(next, list...)
		return append(next, a), true
	})
	return a
}

// RemoveAddress removes the entry with id if present.
func (s *Store) RemoveAddress(id string) {
	s.c.Update(func(list []Address) ([]Address, bool) {
		next := make([]Address, 0, len(list))
		for _, a := range list {
			if a.ID != id {
				next = append(next, a)
			}
		}
		return next, len(next) != len(list)
	})
}

// Addresses returns a copy of the list in insertion order.
func (s *Store) Addresses() []Address {
	var out []Address
	s.c.View(func(list []Address) {
		out = make([]Address, len(list))
		copy(out, list)
	})
	return out
}

// Get returns the address with id.
func (s *Store) Get(id string) (Address, bool) {
	var (
		found Address
		ok    bool
	)
	s.c.View(func(list []Address) {
		for _, a := range list {
			if a.ID == id {
				found, ok = a, true
				return
			}
		}
	})
	return found, ok
}

// uniqueID draws ids until one is unused. Called under the container lock.
func (s *Store) uniqueID(list []Address) string {
	for {
		id := s.ids.Generate()
		taken := false
		for _, a := range list {
			if a.ID == id {
				taken = true
				break
			}
		}
		if !taken {
			return id
		}
	}
}

func clean(v string) string {
	return norm.NFC.String(strings.TrimSpace(v))
}

// Package theme owns the light/dark flag and its derived color palette.
package theme

import "github.com/roach88/storefront/internal/state"

// Key is the persisted key of the theme flag. The value is the raw literal
// "dark" or "light", not JSON.
const Key = "@theme"

// Palette is the set of colors a screen draws with.
type Palette struct {
	Background      string `json:"background"`
	Text            string `json:"text"`
	Card            string `json:"card"`
	Border          string `json:"border"`
	Primary         string `json:"primary"`
	TextSecondary   string `json:"textSecondary"`
	Icon            string `json:"icon"`
	InputBackground string `json:"inputBackground"`
}

var (
	Light = Palette{
		Background:      "#F1F2F6",
		Text:            "#333333",
		Card:            "#FFFFFF",
		Border:          "#E0E0E0",
		Primary:         "#FF801F",
		TextSecondary:   "#666666",
		Icon:            "#555555",
		InputBackground: "#F5F6F8",
	}
	Dark = Palette{
		Background:      "#121212",
		Text:            "#FFFFFF",
		Card:            "#1E1E1E",
		Border:          "#333333",
		Primary:         "#FF801F",
		TextSecondary:   "#AAAAAA",
		Icon:            "#DDDDDD",
		InputBackground: "#2C2C2C",
	}
)

// codec stores the flag as "dark" or "light". Anything other than "dark"
// reads as light.
type codec struct{}

func (codec) Encode(dark bool) (string, error) {
	if dark {
		return "dark", nil
	}
	return "light", nil
}

func (codec) Decode(s string) (bool, error) {
	return s == "dark", nil
}

// Store is the theme state container.
type Store struct {
	c *state.Container[bool]
}

// New creates a theme store persisting into kv. Call Init to load.
func New(kv state.KV, opts ...state.Option) *Store {
	return &Store{c: state.New[bool](kv, Key, codec{}, false, opts...)}
}

// Container exposes the lifecycle (Init, WaitReady, Flush, Close).
func (s *Store) Container() *state.Container[bool] {
	return s.c
}

// IsDark reports whether the dark palette is active.
func (s *Store) IsDark() bool {
	var dark bool
	s.c.View(func(v bool) { dark = v })
	return dark
}

// Toggle flips the flag and returns the new value.
func (s *Store) Toggle() bool {
	var dark bool
	s.c.Update(func(v bool) (bool, bool) {
		dark = !v
		return dark, true
	})
	return dark
}

// SetDark sets the flag.
func (s *Store) SetDark(dark bool) {
	s.c.Update(func(v bool) (bool, bool) {
		return dark, v != dark
	})
}

// Palette returns the palette for the current flag.
func (s *Store) Palette() Palette {
	if s.IsDark() {
		return Dark
	}
	return Light
}

// Package toast holds the single in-app notification banner.
package toast

import (
	"sync"
	"time"
)

// DefaultDuration is how long a toast stays visible.
const DefaultDuration = 4 * time.Second

// Toast is the banner state.
type Toast struct {
	Visible bool   `json:"visible"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Timer is the handle returned by an AfterFunc.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc in production.
type AfterFunc func(d time.Duration, f func()) Timer

// Option configures a Center.
type Option func(*Center)

// WithAfterFunc replaces the timer source.
func WithAfterFunc(fn AfterFunc) Option {
	return func(c *Center) {
		c.after = fn
	}
}

// WithListener registers fn to be called after every state change.
// fn runs outside the Center lock.
func WithListener(fn func(Toast)) Option {
	return func(c *Center) {
		c.listeners = append(c.listeners, fn)
	}
}

// Center shows one toast at a time and hides it after a fixed duration.
type Center struct {
	duration  time.Duration
	after     AfterFunc
	listeners []func(Toast)

	mu    sync.Mutex
	cur   Toast
	timer Timer
	gen   uint64
}

// New creates a Center. A non-positive d uses DefaultDuration.
func New(d time.Duration, opts ...Option) *Center {
	if d <= 0 {
		d = DefaultDuration
	}
	c := &Center{
		duration: d,
		after: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Show makes a toast visible and schedules its auto-hide. A newer Show
// replaces the current toast and its timer.
func (c *Center) Show(title, message string) {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.gen++
	gen := c.gen
	c.cur = Toast{Visible: true, Title: title, Message: message}
	snap := c.cur
	c.timer = c.after(c.duration, func() { c.expire(gen) })
	c.mu.Unlock()

	c.notify(snap)
}

// Hide hides the current toast, keeping its text.
func (c *Center) Hide() {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	changed := c.cur.Visible
	c.cur.Visible = false
	snap := c.cur
	c.mu.Unlock()

	if changed {
		c.notify(snap)
	}
}

// Current returns the banner state.
func (c *Center) Current() Toast {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur
}

// expire hides the toast shown by generation gen, unless superseded.
func (c *Center) expire(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || !c.cur.Visible {
		c.mu.Unlock()
		return
	}
	c.cur.Visible = false
	c.timer = nil
	snap := c.cur
	c.mu.Unlock()

	c.notify(snap)
}

func (c *Center) notify(t Toast) {
	for _, fn := range c.listeners {
		fn(t)
	}
}

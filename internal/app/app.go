// Package app wires the state containers to one key-value store and owns
// their lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/storefront/internal/address"
	"github.com/roach88/storefront/internal/cart"
	"github.com/roach88/storefront/internal/favorites"
	"github.com/roach88/storefront/internal/state"
	"github.com/roach88/storefront/internal/store"
	"github.com/roach88/storefront/internal/theme"
	"github.com/roach88/storefront/internal/toast"
	"github.com/roach88/storefront/internal/validate"
)

// KV is the store backing every container.
type KV interface {
	state.KV
	Remove(ctx context.Context, key string) error
	Dump(ctx context.Context) (map[string]string, error)
	Close() error
}

// Options configures New.
type Options struct {
	Logger   *slog.Logger
	Registry prometheus.Registerer
	IDs      address.IDGenerator
	Toasts   []toast.Option
	// ToastDuration defaults to toast.DefaultDuration.
	ToastDuration time.Duration
}

// lifecycle is the container surface App drives.
type lifecycle interface {
	Init(ctx context.Context)
	WaitReady(ctx context.Context) error
	Flush(ctx context.Context) error
	Close(ctx context.Context) error
	Key() string
}

// App holds the stores and the toast center.
type App struct {
	KV        KV
	Cart      *cart.Store
	Favorites *favorites.Store
	Addresses *address.Store
	Theme     *theme.Store
	Toasts    *toast.Center
	Validator *validate.Validator
	Metrics   *state.Metrics

	logger     *slog.Logger
	containers []lifecycle
}

// Open opens the SQLite store at path and builds an App over it.
func Open(path string, opts Options) (*App, error) {
	kv, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	a, err := New(kv, opts)
	if err != nil {
		kv.Close()
		return nil, err
	}
	return a, nil
}

// New builds an App over kv. Containers are Uninitialized until Start.
func New(kv KV, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	v, err := validate.New()
	if err != nil {
		return nil, fmt.Errorf("build validator: %w", err)
	}

	metrics := state.NewMetrics(opts.Registry)
	sopts := []state.Option{state.WithLogger(logger), state.WithMetrics(metrics)}

	a := &App{
		KV:        kv,
		Cart:      cart.New(kv, sopts...),
		Favorites: favorites.New(kv, sopts...),
		Addresses: address.New(kv, opts.IDs, sopts...),
		Theme:     theme.New(kv, sopts...),
		Toasts:    toast.New(opts.ToastDuration, opts.Toasts...),
		Validator: v,
		Metrics:   metrics,
		logger:    logger,
	}
	a.containers = []lifecycle{
		a.Cart.Container(),
		a.Favorites.Container(),
		a.Addresses.Container(),
		a.Theme.Container(),
	}
	return a, nil
}

// Start issues every container's initial load and waits until all are
// Ready or ctx is done.
func (a *App) Start(ctx context.Context) error {
	for _, c := range a.containers {
		c.Init(ctx)
	}
	for _, c := range a.containers {
		if err := c.WaitReady(ctx); err != nil {
			return err
		}
	}
	a.logger.Debug("containers ready", "count", len(a.containers))
	return nil
}

// Flush waits for every pending save.
func (a *App) Flush(ctx context.Context) error {
	var errs []error
	for _, c := range a.containers {
		if err := c.Flush(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close flushes and disposes every container, then closes the store.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for _, c := range a.containers {
		if err := c.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.Toasts.Hide()
	if err := a.KV.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	return errors.Join(errs...)
}

// Snapshot returns the persisted key/value contents.
func (a *App) Snapshot(ctx context.Context) (map[string]string, error) {
	return a.KV.Dump(ctx)
}

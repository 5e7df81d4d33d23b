package state

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// KV is the durable key/value store a container persists into.
// Implemented by store.SQLite and store.Memory.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Phase is a container lifecycle state.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseLoading
	PhaseReady
	PhaseDisposed
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// ErrNotStarted is returned by WaitReady when Init was never called.
var ErrNotStarted = errors.New("container not initialized")

// Option configures a Container.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	metrics *Metrics
}

// WithLogger sets the logger used for persistence failures.
// Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetrics records load/save outcomes into m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// DiscardLogger returns a logger that drops everything. Used by tests.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Container holds one value of type V persisted under one key.
//
// Thread-safety model:
//   - Update/View/Phase: safe from any goroutine, applied in call order
//   - persistence: one loader goroutine (once) and one writer goroutine
//
// INVARIANTS:
//   - no save is issued before the phase reaches Ready
//   - the loaded snapshot never overwrites a value mutated during Loading
//   - saves for this key are performed sequentially by a single writer
type Container[V any] struct {
	kv      KV
	key     string
	codec   Codec[V]
	logger  *slog.Logger
	metrics *Metrics

	mu    sync.Mutex
	value V
	phase Phase
	dirty bool // mutated before Ready

	ready      chan struct{}
	queue      *saveQueue
	writerDone chan struct{}
	ioCtx      context.Context
}

// New creates an Uninitialized container holding initial.
func New[V any](kv KV, key string, codec Codec[V], initial V, opts ...Option) *Container[V] {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	return &Container[V]{
		kv:         kv,
		key:        key,
		codec:      codec,
		logger:     o.logger,
		metrics:    o.metrics,
		value:      initial,
		phase:      PhaseUninitialized,
		ready:      make(chan struct{}),
		queue:      newSaveQueue(),
		writerDone: make(chan struct{}),
	}
}

// Key returns the persisted key.
func (c *Container[V]) Key() string {
	return c.key
}

// Phase returns the current lifecycle phase.
func (c *Container[V]) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Init moves the container to Loading, starts the writer and issues the
// one-time background load. Calling Init again is a no-op.
//
// ctx bounds the load read only; saves use a context detached from ctx's
// cancellation so the writer outlives the caller.
func (c *Container[V]) Init(ctx context.Context) {
	c.mu.Lock()
	if c.phase != PhaseUninitialized {
		c.mu.Unlock()
		return
	}
	c.phase = PhaseLoading
	c.ioCtx = context.WithoutCancel(ctx)
	c.mu.Unlock()

	go c.runWriter()
	go c.load(ctx)
}

// Ready returns a channel closed once the initial load has completed.
func (c *Container[V]) Ready() <-chan struct{} {
	return c.ready
}

// WaitReady blocks until the initial load has completed or ctx is done.
func (c *Container[V]) WaitReady(ctx context.Context) error {
	if c.Phase() == PhaseUninitialized {
		return ErrNotStarted
	}
	select {
	case <-c.ready:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait ready %s: %w", c.key, ctx.Err())
	}
}

// View calls fn with the current value while holding the container lock.
// fn must not retain or modify the value; copy what it needs.
func (c *Container[V]) View(fn func(V)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.value)
}

// Update applies fn to the current value. fn returns the new value and
// whether anything changed; unchanged updates are not persisted.
//
// fn must not modify the value it is given in place; return a new one.
// Update never blocks on I/O.
func (c *Container[V]) Update(fn func(V) (V, bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, changed := fn(c.value)
	if !changed {
		return
	}
	c.value = next
	c.metrics.mutated(c.key, c.phase)

	switch c.phase {
	case PhaseUninitialized, PhaseLoading:
		c.dirty = true
	case PhaseReady:
		c.scheduleSaveLocked()
	case PhaseDisposed:
		// In-memory only; the writer has stopped.
	}
}

// Flush blocks until every save scheduled before the call has been
// attempted, or ctx is done. A mutation made while Loading is saved when
// the load completes, so Flush waits for the load first.
func (c *Container[V]) Flush(ctx context.Context) error {
	c.mu.Lock()
	pending := c.phase == PhaseLoading && c.dirty
	c.mu.Unlock()
	if pending {
		select {
		case <-c.ready:
		case <-ctx.Done():
			return fmt.Errorf("flush %s: %w", c.key, ctx.Err())
		}
	}

	target := c.queue.watermark()
	for {
		done, progress := c.queue.reached(target)
		if done {
			return nil
		}
		select {
		case <-progress:
		case <-ctx.Done():
			return fmt.Errorf("flush %s: %w", c.key, ctx.Err())
		}
	}
}

// Close waits for the load to finish, writes any pending snapshot, stops the
// writer and moves the container to Disposed. Mutations after Close stay in
// memory only. Close is idempotent.
func (c *Container[V]) Close(ctx context.Context) error {
	c.mu.Lock()
	started := c.phase != PhaseUninitialized
	c.mu.Unlock()

	if started {
		select {
		case <-c.ready:
		case <-ctx.Done():
			return fmt.Errorf("close %s: %w", c.key, ctx.Err())
		}
	}

	c.mu.Lock()
	c.phase = PhaseDisposed
	c.mu.Unlock()

	c.queue.close()
	if !started {
		return nil
	}

	select {
	case <-c.writerDone:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("close %s: %w", c.key, ctx.Err())
	}
}

// load performs the one-time seed read and transitions to Ready.
func (c *Container[V]) load(ctx context.Context) {
	loaded, have := c.read(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	defer close(c.ready)

	if c.phase != PhaseLoading {
		return
	}
	c.phase = PhaseReady

	if c.dirty {
		// Last mutation wins: keep the in-memory value and persist it.
		if have {
			c.logger.Debug("discarding loaded snapshot, mutated during load", "key", c.key)
		}
		c.dirty = false
		c.scheduleSaveLocked()
		return
	}
	if have {
		c.value = loaded
	}
}

// read fetches and decodes the persisted snapshot. Any failure is treated as
// "no prior data".
func (c *Container[V]) read(ctx context.Context) (V, bool) {
	var zero V

	raw, ok, err := c.kv.Get(ctx, c.key)
	if err != nil {
		c.logger.Error("failed to load snapshot", "key", c.key, "error", err)
		c.metrics.load(c.key, resultError)
		return zero, false
	}
	if !ok {
		c.metrics.load(c.key, resultAbsent)
		return zero, false
	}

	v, err := c.codec.Decode(raw)
	if err != nil {
		c.logger.Error("failed to decode snapshot", "key", c.key, "error", err)
		c.metrics.load(c.key, resultCorrupt)
		return zero, false
	}
	c.metrics.load(c.key, resultOK)
	return v, true
}

// scheduleSaveLocked encodes the current value and queues it for the writer.
// Caller holds c.mu, so queue order matches mutation order.
func (c *Container[V]) scheduleSaveLocked() {
	data, err := c.codec.Encode(c.value)
	if err != nil {
		c.logger.Error("failed to encode snapshot", "key", c.key, "error", err)
		c.metrics.save(c.key, resultSkipped)
		return
	}
	c.queue.enqueue(data)
}

// runWriter is the single writer loop. It drains the pending snapshot after
// the queue is closed, then exits.
func (c *Container[V]) runWriter() {
	defer close(c.writerDone)

	for {
		if data, seq, ok := c.queue.take(); ok {
			c.persist(data)
			c.queue.markWritten(seq)
			continue
		}
		if c.queue.isClosed() {
			return
		}
		<-c.queue.wait()
	}
}

// persist writes one snapshot. Failures are logged and otherwise ignored:
// the in-memory value remains the source of truth.
func (c *Container[V]) persist(data string) {
	if err := c.kv.Set(c.ioCtx, c.key, data); err != nil {
		c.logger.Error("failed to save snapshot", "key", c.key, "error", err)
		c.metrics.save(c.key, resultError)
		return
	}
	c.metrics.save(c.key, resultOK)
}

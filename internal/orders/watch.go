package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync/atomic"
	"time"
)

// ErrFeedStopped is reported when a feed ends without giving a reason.
var ErrFeedStopped = errors.New("order feed stopped")

// RetryConfig controls resubscription after an order feed drops.
type RetryConfig struct {
	// MaxRetries is the number of consecutive resubscriptions attempted
	// before Watch gives up.
	MaxRetries int
	// InitialBackoff is the wait before the first resubscription.
	InitialBackoff time.Duration
	// MaxBackoff caps the wait.
	MaxBackoff time.Duration
	// BackoffMultiplier grows the wait per attempt.
	BackoffMultiplier float64
	// Jitter adds randomness to the wait (0.0 to 1.0).
	Jitter float64
	// StableAfter is how long a feed must stay up to reset the retry
	// count. Zero means only a delivered update resets it.
	StableAfter time.Duration
}

// DefaultRetryConfig returns the retry policy used by the CLI.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        5,
		InitialBackoff:    time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            0.1,
		StableAfter:       time.Minute,
	}
}

// Backoff returns the wait before attempt (1-based).
func (r RetryConfig) Backoff(attempt int) time.Duration {
	mult := r.BackoffMultiplier
	if mult < 1 {
		mult = 1
	}
	backoff := float64(r.InitialBackoff) * math.Pow(mult, float64(attempt-1))
	if r.MaxBackoff > 0 && backoff > float64(r.MaxBackoff) {
		backoff = float64(r.MaxBackoff)
	}
	if r.Jitter > 0 {
		backoff += backoff * r.Jitter * (rand.Float64()*2 - 1)
	}
	return time.Duration(backoff)
}

// Watch subscribes to userID's order updates and calls fn for each one
// until ctx is done. A dropped feed is resubscribed with backoff; after
// MaxRetries consecutive failures Watch returns the last failure.
// Cancelling ctx returns nil.
func Watch(ctx context.Context, svc Service, userID string, fn func(Order), retry RetryConfig, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	failures := 0
	for {
		var delivered atomic.Bool
		started := time.Now()

		sub, err := svc.Subscribe(ctx, userID, func(o Order) {
			delivered.Store(true)
			fn(o)
		})
		if err == nil {
			logger.Debug("order feed subscribed", "user", userID)
			select {
			case <-ctx.Done():
				if cerr := sub.Close(); cerr != nil {
					logger.Warn("error closing subscription", "error", cerr)
				}
				return nil
			case <-sub.Done():
				err = sub.Err()
				_ = sub.Close()
				if err == nil {
					err = ErrFeedStopped
				}
			}
			if delivered.Load() || (retry.StableAfter > 0 && time.Since(started) >= retry.StableAfter) {
				failures = 0
			}
		}
		if ctx.Err() != nil {
			return nil
		}

		failures++
		if failures > retry.MaxRetries {
			return fmt.Errorf("order feed failed after %d attempt(s): %w", failures, err)
		}
		wait := retry.Backoff(failures)
		logger.Warn("order feed interrupted, resubscribing", "error", err, "attempt", failures, "backoff", wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

package orders

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
)

// PrefKey is the preference key that disables order notifications when
// set to "false".
const PrefKey = "order_notifications"

// Prefs reads a preference value.
type Prefs interface {
	Get(ctx context.Context, key string) (string, bool, error)
}

// PrefStore reads and writes preference values.
type PrefStore interface {
	Prefs
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// NotificationsEnabled reports the order notification preference. Only
// the literal "false" disables; an unset preference means enabled.
func NotificationsEnabled(ctx context.Context, p Prefs) (enabled, set bool, err error) {
	v, ok, err := p.Get(ctx, PrefKey)
	if err != nil {
		return true, false, err
	}
	return !ok || v != "false", ok, nil
}

// SetNotifications stores "true" or "false" under PrefKey.
func SetNotifications(ctx context.Context, p PrefStore, on bool) error {
	return p.Set(ctx, PrefKey, strconv.FormatBool(on))
}

// ResetNotifications removes the preference, restoring the default.
func ResetNotifications(ctx context.Context, p PrefStore) error {
	return p.Remove(ctx, PrefKey)
}

// Toaster shows a notification banner.
type Toaster interface {
	Show(title, message string)
}

// StatusMessage returns the banner text for status. ok is false for
// statuses that are not announced.
func StatusMessage(status Status) (title, message string, ok bool) {
	switch status {
	case StatusPending:
		return "", "", false
	case StatusConfirmed:
		return "Order Confirmed", "The restaurant has accepted your order.", true
	case StatusDelivered:
		return "Delivered", "Enjoy your meal! Delivered safely.", true
	case StatusCancelled:
		return "Order Cancelled", "Your order was cancelled. Please check the app for details.", true
	default:
		return "Order Update", "Your order is now " + string(status), true
	}
}

// Notifier turns pushed order updates into toasts.
type Notifier struct {
	prefs  Prefs
	toasts Toaster
	logger *slog.Logger

	mu   sync.Mutex
	last map[string]Status
}

// NewNotifier creates a Notifier. prefs may be nil (always enabled).
func NewNotifier(prefs Prefs, toasts Toaster, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		prefs:  prefs,
		toasts: toasts,
		logger: logger,
		last:   make(map[string]Status),
	}
}

// Handle shows a toast for o unless notifications are disabled, the status
// is not announced, or the same status was already seen for this order.
// Reports whether a toast was shown.
//
// Updates that arrive while notifications are disabled are not recorded.
func (n *Notifier) Handle(ctx context.Context, o Order) bool {
	if !n.enabled(ctx) {
		return false
	}

	n.mu.Lock()
	if n.last[o.ID] == o.Status {
		n.mu.Unlock()
		return false
	}
	n.last[o.ID] = o.Status
	n.mu.Unlock()

	title, message, ok := StatusMessage(o.Status)
	if !ok {
		return false
	}
	n.logger.Debug("order status changed", "order", o.ShortID(), "status", o.Status)
	n.toasts.Show(title, message)
	return true
}

func (n *Notifier) enabled(ctx context.Context) bool {
	if n.prefs == nil {
		return true
	}
	enabled, _, err := NotificationsEnabled(ctx, n.prefs)
	if err != nil {
		n.logger.Warn("failed to read notification preference", "error", err)
	}
	return enabled
}

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/roach88/storefront/internal/config"
	"github.com/roach88/storefront/internal/orders"
	"github.com/roach88/storefront/internal/toast"
)

// OrdersOptions holds flags shared by the orders commands.
type OrdersOptions struct {
	*RootOptions
	UserID string

	// Service overrides the remote order client (for testing).
	// If nil, a Client is built from the configuration.
	Service orders.Service

	// Retry governs resubscription in watch.
	Retry orders.RetryConfig
}

// NewOrdersCommand creates the orders command group.
func NewOrdersCommand(rootOpts *RootOptions) *cobra.Command {
	return newOrdersCommand(&OrdersOptions{RootOptions: rootOpts, Retry: orders.DefaultRetryConfig()})
}

func newOrdersCommand(opts *OrdersOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Place and follow orders with the remote order service",
		Long: `Place and follow orders with the remote order service.

Requires SUPABASE_URL and SUPABASE_ANON_KEY (environment, .env or config
file). The shopper is identified by --user or STOREFRONT_USER_ID.`,
	}
	cmd.PersistentFlags().StringVar(&opts.UserID, "user", "", "shopper user id (overrides config)")

	cmd.AddCommand(newCheckoutCommand(opts))
	cmd.AddCommand(newOrdersListCommand(opts))
	cmd.AddCommand(newOrderStatusCommand(opts))
	cmd.AddCommand(newOrderDeleteCommand(opts))
	cmd.AddCommand(newInvoiceCommand(opts))
	cmd.AddCommand(newWatchCommand(opts))

	return cmd
}

// service returns the configured order service.
func (o *OrdersOptions) service(cfg config.Config) (orders.Service, error) {
	if o.Service != nil {
		return o.Service, nil
	}
	if err := cfg.RequireRemote(); err != nil {
		return nil, WrapExitError(ExitCommandError, "order service not configured", err)
	}
	c, err := orders.NewClient(orders.ClientConfig{
		URL:       cfg.Supabase.URL,
		APIKey:    cfg.Supabase.AnonKey,
		RateLimit: cfg.RateLimit,
		Burst:     cfg.RateBurst,
		Logger:    slog.Default(),
	})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to create order client", err)
	}
	return c, nil
}

func (o *OrdersOptions) userID(cfg config.Config) string {
	if o.UserID != "" {
		return o.UserID
	}
	return cfg.UserID
}

// remoteOnly runs fn with the order service and no local state.
func (o *OrdersOptions) remoteOnly(cmd *cobra.Command, fn func(ctx context.Context, cfg config.Config, svc orders.Service, out *OutputFormatter) error) error {
	cfg, err := loadConfig(o.RootOptions)
	if err != nil {
		return err
	}
	svc, err := o.service(cfg)
	if err != nil {
		return err
	}
	return fn(commandContext(cmd), cfg, svc, newFormatter(cmd, o.RootOptions))
}

// remoteError reports a failed remote call and returns an ExitError.
func remoteError(out *OutputFormatter, message string, err error) error {
	code := CodeRemote
	var details interface{}
	var apiErr *orders.APIError
	switch {
	case errors.Is(err, orders.ErrNotFound):
		code = CodeNotFound
	case errors.As(err, &apiErr):
		details = apiErr
	}
	_ = out.Error(code, err.Error(), details)
	return WrapExitError(ExitFailure, message, err)
}

func newCheckoutCommand(opts *OrdersOptions) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place the cart as an order",
		Long: `Place the current cart as a pending order. On success the cart is
cleared; on failure it is left untouched.

Examples:
  storefront orders checkout --user 3f9c...
  storefront orders checkout --mode delivery`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts.RootOptions, func(ctx context.Context, s *session, out *OutputFormatter) error {
				svc, err := opts.service(s.cfg)
				if err != nil {
					return err
				}
				deliveryMode, err := orders.ParseDeliveryMode(mode)
				if err != nil {
					return invalidInput(out, err)
				}

				checkout := orders.NewCheckout(svc, s.app.Cart, s.cfg.PickupAddress)
				order, err := checkout.PlaceOrder(ctx, opts.userID(s.cfg), deliveryMode)
				switch {
				case errors.Is(err, orders.ErrEmptyCart), errors.Is(err, orders.ErrNotSignedIn):
					return invalidInput(out, err)
				case err != nil:
					return remoteError(out, "checkout failed", err)
				}

				slog.Info("order placed", "order", order.ID, "mode", deliveryMode)
				if out.Format == "json" {
					return out.Success(order)
				}
				fmt.Fprintf(out.Writer, "Order #%s placed (%s), total %s\n",
					order.ShortID(), deliveryMode, orders.FormatPrice(order.TotalPrice))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(orders.DeliveryModePickup), "pickup or delivery")
	return cmd
}

func newOrdersListCommand(opts *OrdersOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:          "list",
		Short:        "List orders, newest first",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.remoteOnly(cmd, func(ctx context.Context, cfg config.Config, svc orders.Service, out *OutputFormatter) error {
				filter := orders.Filter{UserID: opts.userID(cfg)}
				if all {
					filter.UserID = ""
				} else if filter.UserID == "" {
					return invalidInput(out, orders.ErrNotSignedIn)
				}

				list, err := svc.List(ctx, filter)
				if err != nil {
					return remoteError(out, "list orders failed", err)
				}
				if list == nil {
					list = []orders.Order{}
				}
				if out.Format == "json" {
					return out.Success(list)
				}
				if len(list) == 0 {
					fmt.Fprintln(out.Writer, "No orders.")
					return nil
				}
				for _, o := range list {
					fmt.Fprintf(out.Writer, "#%s  %-10s %-9s %12s  %s\n",
						o.ShortID(), o.Status, o.DeliveryMode(), orders.FormatPrice(o.TotalPrice),
						o.CreatedAt.Format("02 Jan 2006 15:04"))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "list every shopper's orders")
	return cmd
}

func newOrderStatusCommand(opts *OrdersOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "status <order-id> <status>",
		Short:        "Set an order's status",
		Long:         "Set an order's status to one of pending, confirmed, shipped, delivered, cancelled.",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.remoteOnly(cmd, func(ctx context.Context, cfg config.Config, svc orders.Service, out *OutputFormatter) error {
				status, err := orders.ParseStatus(args[1])
				if err != nil {
					return invalidInput(out, err)
				}
				if err := svc.UpdateStatus(ctx, args[0], status); err != nil {
					return remoteError(out, "update status failed", err)
				}
				if out.Format == "json" {
					return out.Success(map[string]string{"id": args[0], "status": string(status)})
				}
				fmt.Fprintf(out.Writer, "Order %s is now %s\n", args[0], status)
				return nil
			})
		},
	}
}

func newOrderDeleteCommand(opts *OrdersOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "delete <order-id>",
		Short:        "Delete an order",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.remoteOnly(cmd, func(ctx context.Context, cfg config.Config, svc orders.Service, out *OutputFormatter) error {
				if err := svc.Delete(ctx, args[0]); err != nil {
					return remoteError(out, "delete order failed", err)
				}
				if out.Format == "json" {
					return out.Success(map[string]string{"id": args[0]})
				}
				fmt.Fprintf(out.Writer, "Deleted order %s\n", args[0])
				return nil
			})
		},
	}
}

func newInvoiceCommand(opts *OrdersOptions) *cobra.Command {
	var inv orders.Invoice
	var output string

	cmd := &cobra.Command{
		Use:   "invoice <order-id>",
		Short: "Render an order's HTML invoice",
		Long: `Render an order's HTML invoice to stdout or a file.

Example:
  storefront orders invoice 0192f0c1 --name "Asha Rao" -o invoice.html`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.remoteOnly(cmd, func(ctx context.Context, cfg config.Config, svc orders.Service, out *OutputFormatter) error {
				order, err := svc.Get(ctx, args[0])
				if err != nil {
					return remoteError(out, "fetch order failed", err)
				}
				inv.Order = order

				if output == "" {
					return orders.RenderInvoice(out.Writer, inv)
				}
				return writeInvoice(output, inv, out)
			})
		},
	}
	cmd.Flags().StringVar(&inv.CustomerName, "name", "", "customer name printed on the invoice")
	cmd.Flags().StringVar(&inv.Email, "email", "", "customer email printed on the invoice")
	cmd.Flags().StringVar(&inv.Brand, "brand", orders.DefaultBrand, "brand printed in the header")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}

func writeInvoice(path string, inv orders.Invoice, out *OutputFormatter) error {
	f, err := os.Create(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create invoice file", err)
	}
	if err := orders.RenderInvoice(f, inv); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return WrapExitError(ExitCommandError, "failed to write invoice file", err)
	}
	if out.Format == "json" {
		return out.Success(map[string]string{"id": inv.Order.ID, "path": path})
	}
	fmt.Fprintf(out.Writer, "Wrote invoice #%s to %s\n", inv.Order.ShortID(), path)
	return nil
}

func newWatchCommand(opts *OrdersOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Show a toast for every status change of the shopper's orders",
		Long: `Subscribe to the shopper's order updates and print a toast for each
status change until interrupted. "storefront notifications off" silences
them.

A dropped connection is resubscribed with backoff. After --max-retries
consecutive failures watch exits with status 1.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts, cmd)
		},
	}
	cmd.Flags().IntVar(&opts.Retry.MaxRetries, "max-retries", opts.Retry.MaxRetries, "resubscription attempts before giving up")
	return cmd
}

func runWatch(opts *OrdersOptions, cmd *cobra.Command) error {
	ctx, stop := withInterrupt(commandContext(cmd))
	defer stop()

	out := newFormatter(cmd, opts.RootOptions)
	printer := &toastPrinter{w: out.Writer, diag: out.GetErrWriter(), json: out.Format == "json"}

	s, err := openSession(ctx, opts.RootOptions, nil, toast.WithListener(printer.print))
	if err != nil {
		return err
	}
	defer s.close(ctx)

	userID := opts.userID(s.cfg)
	if userID == "" {
		return invalidInput(out, orders.ErrNotSignedIn)
	}
	svc, err := opts.service(s.cfg)
	if err != nil {
		return err
	}

	notifier := orders.NewNotifier(s.app.KV, s.app.Toasts, slog.Default())
	if enabled, _, _ := orders.NotificationsEnabled(ctx, s.app.KV); !enabled {
		fmt.Fprintln(out.GetErrWriter(), "Order notifications are off; run \"storefront notifications on\" to see them.")
	}
	slog.Info("watching orders", "user", userID)

	err = orders.Watch(ctx, svc, userID, func(o orders.Order) {
		notifier.Handle(ctx, o)
	}, opts.Retry, slog.Default())
	if err != nil {
		return remoteError(out, "order feed lost", err)
	}
	return nil
}

// toastPrinter writes visible toasts. The listener runs on timer and
// socket goroutines.
type toastPrinter struct {
	mu   sync.Mutex
	w    io.Writer
	diag io.Writer
	json bool
}

func (p *toastPrinter) print(t toast.Toast) {
	if !t.Visible {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.json {
		if err := json.NewEncoder(p.w).Encode(t); err != nil {
			fmt.Fprintf(p.diag, "failed to write toast: %v\n", err)
		}
		return
	}
	fmt.Fprintf(p.w, "[%s] %s\n", t.Title, t.Message)
}

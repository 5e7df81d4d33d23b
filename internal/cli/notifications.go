package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/storefront/internal/orders"
)

// NotificationsView is the JSON shape of the notification preference.
type NotificationsView struct {
	Enabled bool `json:"enabled"`
	// Set is false when the preference has never been written.
	Set bool `json:"set"`
}

// NewNotificationsCommand creates the notifications command group.
func NewNotificationsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "Show or change the order notification preference",
		Long: `Show or change the order notification preference read by
"orders watch". Notifications are on unless turned off.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:          "show",
		Short:        "Show whether order notifications are on",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session, out *OutputFormatter) error {
				return printNotifications(ctx, out, s.app.KV)
			})
		},
	})

	for _, on := range []bool{true, false} {
		on := on // per-iteration copy; go 1.21 shares loop variables across closures
		use, short := "on", "Turn order notifications on"
		if !on {
			use, short = "off", "Turn order notifications off"
		}
		cmd.AddCommand(&cobra.Command{
			Use:          use,
			Short:        short,
			Args:         cobra.NoArgs,
			SilenceUsage: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withSession(cmd, rootOpts, func(ctx context.Context, s *session, out *OutputFormatter) error {
					if err := orders.SetNotifications(ctx, s.app.KV, on); err != nil {
						return WrapExitError(ExitFailure, "failed to save notification preference", err)
					}
					return printNotifications(ctx, out, s.app.KV)
				})
			},
		})
	}

	cmd.AddCommand(&cobra.Command{
		Use:          "reset",
		Short:        "Forget the preference (notifications on)",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session, out *OutputFormatter) error {
				if err := orders.ResetNotifications(ctx, s.app.KV); err != nil {
					return WrapExitError(ExitFailure, "failed to reset notification preference", err)
				}
				return printNotifications(ctx, out, s.app.KV)
			})
		},
	})

	return cmd
}

func printNotifications(ctx context.Context, out *OutputFormatter, prefs orders.Prefs) error {
	enabled, set, err := orders.NotificationsEnabled(ctx, prefs)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read notification preference", err)
	}
	if out.Format == "json" {
		return out.Success(NotificationsView{Enabled: enabled, Set: set})
	}
	if enabled {
		return out.Success("on")
	}
	return out.Success("off")
}

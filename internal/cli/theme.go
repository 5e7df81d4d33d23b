package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/storefront/internal/theme"
)

// ThemeView is the JSON shape of the theme.
type ThemeView struct {
	Dark    bool          `json:"dark"`
	Palette theme.Palette `json:"palette"`
}

// NewThemeCommand creates the theme command group.
func NewThemeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Show or switch the color theme",
	}

	cmd.AddCommand(&cobra.Command{
		Use:          "show",
		Short:        "Show the active theme",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session, out *OutputFormatter) error {
				return printTheme(out, s.app.Theme)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:          "toggle",
		Short:        "Switch between light and dark",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session, out *OutputFormatter) error {
				s.app.Theme.Toggle()
				return printTheme(out, s.app.Theme)
			})
		},
	})

	return cmd
}

func printTheme(out *OutputFormatter, t *theme.Store) error {
	view := ThemeView{Dark: t.IsDark(), Palette: t.Palette()}
	if out.Format == "json" {
		return out.Success(view)
	}
	if view.Dark {
		return out.Success("dark")
	}
	return out.Success("light")
}

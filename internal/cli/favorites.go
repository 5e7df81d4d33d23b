package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/storefront/internal/favorites"
	"github.com/roach88/storefront/internal/orders"
)

// NewFavoritesCommand creates the favorites command group.
func NewFavoritesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favorites",
		Aliases: []string{"fav"},
		Short:   "List and edit liked products",
	}

	cmd.AddCommand(&cobra.Command{
		Use:          "list",
		Short:        "List favorite products",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session, out *OutputFormatter) error {
				return printFavorites(out, s.app.Favorites.Favorites())
			})
		},
	})

	var category, description, offer string
	add := &cobra.Command{
		Use:          "add <id> <name> <price>",
		Short:        "Like a product",
		Args:         cobra.ExactArgs(3),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session, out *OutputFormatter) error {
				price, err := strconv.ParseFloat(args[2], 64)
				if err != nil {
					return invalidInput(out, fmt.Errorf("price %q: %w", args[2], err))
				}
				p := favorites.Product{
					ID:          args[0],
					Name:        args[1],
					Price:       price,
					Category:    category,
					Description: description,
					Offer:       offer,
				}
				if err := s.app.Validator.FavoriteProduct(p); err != nil {
					return invalidInput(out, err)
				}
				s.app.Favorites.AddToFavorites(p)
				return printFavorites(out, s.app.Favorites.Favorites())
			})
		},
	}
	add.Flags().StringVar(&category, "category", "", "product category")
	add.Flags().StringVar(&description, "description", "", "product description")
	add.Flags().StringVar(&offer, "offer", "", "offer label")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:          "remove <id>",
		Short:        "Unlike a product",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session, out *OutputFormatter) error {
				s.app.Favorites.RemoveFromFavorites(args[0])
				return printFavorites(out, s.app.Favorites.Favorites())
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:          "check <id>",
		Short:        "Report whether a product is liked",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session, out *OutputFormatter) error {
				liked := s.app.Favorites.IsFavorite(args[0])
				if out.Format == "json" {
					return out.Success(map[string]interface{}{"id": args[0], "favorite": liked})
				}
				if liked {
					return out.Success(args[0] + " is a favorite")
				}
				return out.Success(args[0] + " is not a favorite")
			})
		},
	})

	return cmd
}

func printFavorites(out *OutputFormatter, list []favorites.Product) error {
	if list == nil {
		list = []favorites.Product{}
	}
	if out.Format == "json" {
		return out.Success(list)
	}
	if len(list) == 0 {
		fmt.Fprintln(out.Writer, "No favorites yet.")
		return nil
	}
	for _, p := range list {
		fmt.Fprintf(out.Writer, "%-12s %-30s %10s\n", p.ID, p.Name, orders.FormatPrice(p.Price))
	}
	return nil
}

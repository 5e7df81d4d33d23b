package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/storefront/internal/cart"
	"github.com/roach88/storefront/internal/orders"
)

// CartView is the JSON shape of the cart.
type CartView struct {
	Items []cart.Item `json:"items"`
	Count int         `json:"count"`
	Total float64     `json:"total"`
}

// NewCartCommand creates the cart command group.
func NewCartCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show and edit the cart",
	}

	cmd.AddCommand(&cobra.Command{
		Use:          "show",
		Short:        "Show cart items and total",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session, out *OutputFormatter) error {
				return printCart(out, s.app.Cart)
			})
		},
	})

	var size string
	add := &cobra.Command{
		Use:   "add <id> <name> <price>",
		Short: "Add a product, or one more of it",
		Long: `Add a product to the cart. Adding a product already in the cart
increases its quantity by one; the price stays the one captured first.

Example:
  storefront cart add p1 "Masala Dosa" 120 --size large`,
		Args:         cobra.ExactArgs(3),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session, out *OutputFormatter) error {
				price, err := strconv.ParseFloat(args[2], 64)
				if err != nil {
					return invalidInput(out, fmt.Errorf("price %q: %w", args[2], err))
				}
				p := cart.Product{ID: args[0], Name: args[1], Price: price, Size: size}
				if err := s.app.Validator.CartProduct(p); err != nil {
					return invalidInput(out, err)
				}
				s.app.Cart.AddToCart(p)
				out.VerboseLog("added %s", p.ID)
				return printCart(out, s.app.Cart)
			})
		},
	}
	add.Flags().StringVar(&size, "size", "", "product size")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:          "remove <id>",
		Short:        "Remove a line item",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session, out *OutputFormatter) error {
				s.app.Cart.RemoveFromCart(args[0])
				return printCart(out, s.app.Cart)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "qty <id> <quantity>",
		Short: "Set the quantity of a line item",
		Long: `Set the quantity of a line item. A quantity below 1 removes the item.
Unknown ids are ignored.`,
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session, out *OutputFormatter) error {
				q, err := strconv.Atoi(args[1])
				if err != nil {
					return invalidInput(out, fmt.Errorf("quantity %q: %w", args[1], err))
				}
				s.app.Cart.UpdateQuantity(args[0], q)
				return printCart(out, s.app.Cart)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:          "clear",
		Short:        "Empty the cart",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session, out *OutputFormatter) error {
				s.app.Cart.ClearCart()
				return printCart(out, s.app.Cart)
			})
		},
	})

	return cmd
}

func printCart(out *OutputFormatter, c *cart.Store) error {
	view := CartView{Items: c.Items(), Count: c.Count(), Total: c.Total()}
	if view.Items == nil {
		view.Items = []cart.Item{}
	}
	if out.Format == "json" {
		return out.Success(view)
	}

	w := out.Writer
	if len(view.Items) == 0 {
		fmt.Fprintln(w, "Cart is empty.")
		return nil
	}
	for _, it := range view.Items {
		name := it.Name
		if it.Size != "" {
			name += " (" + it.Size + ")"
		}
		fmt.Fprintf(w, "%-12s %-30s %3d x %10s = %10s\n",
			it.ID, name, it.Quantity, orders.FormatPrice(it.Price), orders.FormatPrice(it.LineTotal()))
	}
	fmt.Fprintf(w, "\n%d item(s), total %s\n", view.Count, orders.FormatPrice(view.Total))
	return nil
}

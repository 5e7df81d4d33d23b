package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/storefront/internal/address"
)

// AddressOptions holds flags for address add.
type AddressOptions struct {
	*RootOptions
	Fields address.Fields
	Type   string
}

// NewAddressCommand creates the address command group.
func NewAddressCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddressOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "address",
		Short: "Manage saved delivery addresses",
	}

	cmd.AddCommand(&cobra.Command{
		Use:          "list",
		Short:        "List saved addresses",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session, out *OutputFormatter) error {
				return printAddresses(out, s.app.Addresses.Addresses())
			})
		},
	})

	add := &cobra.Command{
		Use:   "add",
		Short: "Save a new address",
		Long: `Save a new address. Every field is required; the id is generated.

Example:
  storefront address add --name Asha --street "12 MG Road" --city Pune \
    --zip 411001 --phone "+91 98200 00000" --type Home`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session, out *OutputFormatter) error {
				return runAddressAdd(opts, s, out)
			})
		},
	}
	add.Flags().StringVar(&opts.Fields.Name, "name", "", "recipient name")
	add.Flags().StringVar(&opts.Fields.Street, "street", "", "street address")
	add.Flags().StringVar(&opts.Fields.City, "city", "", "city")
	add.Flags().StringVar(&opts.Fields.Zip, "zip", "", "postal code")
	add.Flags().StringVar(&opts.Fields.Phone, "phone", "", "contact phone")
	add.Flags().StringVar(&opts.Type, "type", string(address.TypeHome), "address type (Home|Work|Other)")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:          "remove <id>",
		Short:        "Delete a saved address",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session, out *OutputFormatter) error {
				s.app.Addresses.RemoveAddress(args[0])
				return printAddresses(out, s.app.Addresses.Addresses())
			})
		},
	})

	return cmd
}

func runAddressAdd(opts *AddressOptions, s *session, out *OutputFormatter) error {
	t, err := address.ParseType(opts.Type)
	if err != nil {
		return invalidInput(out, err)
	}
	f := opts.Fields
	f.Type = t
	if err := s.app.Validator.Address(f); err != nil {
		return invalidInput(out, err)
	}

	added := s.app.Addresses.AddAddress(f)
	out.VerboseLog("saved address %s", added.ID)
	if out.Format == "json" {
		return out.Success(added)
	}
	fmt.Fprintf(out.Writer, "Saved address %s\n", added.ID)
	return nil
}

func printAddresses(out *OutputFormatter, list []address.Address) error {
	if list == nil {
		list = []address.Address{}
	}
	if out.Format == "json" {
		return out.Success(list)
	}
	if len(list) == 0 {
		fmt.Fprintln(out.Writer, "No saved addresses.")
		return nil
	}
	for _, a := range list {
		fmt.Fprintf(out.Writer, "%s [%s]\n  %s\n  %s, %s %s\n  %s\n",
			a.ID, a.Type, a.Name, a.Street, a.City, a.Zip, a.Phone)
	}
	return nil
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newShortlistCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shortlist",
		Short: "Manage the shortlisted idea ids",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <idea-id>",
		Short: "Add an idea to the shortlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Shortlist.AddShortlist(args[0])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <idea-id>",
		Short: "Remove an idea from the shortlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Shortlist.RemoveShortlist(args[0])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print the shortlisted idea ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := app.Shortlist.Shortlist()
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	})

	return cmd
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a listing",
		Long:  "Remove a listing and its verification requests. Saved analyses are kept but unlinked.",
		Args:  cobra.ExactArgs(1),
		RunE:  runRemove,
	}
}

func runRemove(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0], "listing")
	if err != nil {
		return err
	}

	if err := newAPIClient().DeleteListing(cmdContext(cmd), id); err != nil {
		return err
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"id":      id,
			"removed": true,
		})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Listing #%d removed.\n", id)
	return nil
}

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newNotesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notes <id> <text>",
		Short: "Replace a listing's notes",
		Long:  "Replace a listing's notes. Pass an empty string to clear them.",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runNotes,
	}
}

func runNotes(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0], "listing")
	if err != nil {
		return err
	}
	notes := strings.TrimSpace(strings.Join(args[1:], " "))

	if err := newAPIClient().UpdateNotes(cmdContext(cmd), id, notes); err != nil {
		return err
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), map[string]any{"id": id, "notes": notes})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Notes updated for listing #%d.\n", id)
	return nil
}

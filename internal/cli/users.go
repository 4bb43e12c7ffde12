package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/evcraddock/rental-arb/internal/auth"
)

func newUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage authorized users (admin)",
	}

	cmd.AddCommand(newUsersListCmd(), newUsersAddCmd(), newUsersTierCmd(), newUsersRemoveCmd())
	return cmd
}

func newUsersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List authorized users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := newAPIClient().ListUsers(cmdContext(cmd))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if isJSON() {
				return printJSON(out, users)
			}
			if len(users) == 0 {
				fmt.Fprintln(out, "No users.")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tEMAIL\tNAME\tTIER")
			for _, u := range users {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", u.ID, u.Email, u.Name, u.Tier)
			}
			return eris.Wrap(tw.Flush(), "flushing table")
		},
	}
}

func newUsersAddCmd() *cobra.Command {
	var name, tier string

	cmd := &cobra.Command{
		Use:   "add <email>",
		Short: "Authorize a new user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := auth.ParseTier(tier)
			if err != nil {
				return err
			}

			u, err := newAPIClient().AddUser(cmdContext(cmd), args[0], name, t)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), u)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (#%d, %s).\n", u.Email, u.ID, u.Tier)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&tier, "tier", string(auth.TierFree), "tier: free, pro or admin")

	return cmd
}

func newUsersTierCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tier <id> <free|pro|admin>",
		Short: "Change a user's tier",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "user")
			if err != nil {
				return err
			}
			t, err := auth.ParseTier(args[1])
			if err != nil {
				return err
			}

			u, err := newAPIClient().SetTier(cmdContext(cmd), id, t)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), u)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s.\n", u.Email, u.Tier)
			return nil
		},
	}
}

func newUsersRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Revoke a user's access",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "user")
			if err != nil {
				return err
			}
			if err := newAPIClient().DeleteUser(cmdContext(cmd), id); err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), map[string]any{"id": id, "removed": true})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User #%d removed.\n", id)
			return nil
		},
	}
}

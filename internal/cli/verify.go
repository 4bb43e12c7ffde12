package cli

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/evcraddock/rental-arb/internal/verification"
)

func newVerifyCmd() *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   "verify <id>",
		Short: "Request verification of a listing",
		Long:  "Ask an admin to confirm a listing's details. A listing can have one open request at a time.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd, args[0], notes)
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "notes for the reviewer")

	return cmd
}

func runVerify(cmd *cobra.Command, arg, notes string) error {
	id, err := parseID(arg, "listing")
	if err != nil {
		return err
	}

	req, err := newAPIClient().SubmitVerification(cmdContext(cmd), id, notes)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), req)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Verification request #%d opened for listing #%d.\n", req.ID, req.ListingID)
	return nil
}

func newVerificationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verifications",
		Short: "Review verification requests",
		Long:  "List verification requests and resolve them (admin).",
	}

	cmd.AddCommand(newVerificationsListCmd(), newVerificationsResolveCmd())
	return cmd
}

func newVerificationsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [listing-id]",
		Short: "List requests",
		Long:  "With a listing ID, list that listing's requests. Without one, list the open queue (admin).",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runListingVerifications(cmd, args[0])
			}
			return runPendingVerifications(cmd)
		},
	}
}

func runListingVerifications(cmd *cobra.Command, arg string) error {
	id, err := parseID(arg, "listing")
	if err != nil {
		return err
	}

	reqs, err := newAPIClient().ListVerifications(cmdContext(cmd), id)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), reqs)
	}
	printVerifications(cmd.OutOrStdout(), reqs)
	return nil
}

func runPendingVerifications(cmd *cobra.Command) error {
	pending, err := newAPIClient().PendingVerifications(cmdContext(cmd))
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), pending)
	}
	return printPendingTable(cmd.OutOrStdout(), pending)
}

func newVerificationsResolveCmd() *cobra.Command {
	var note string

	cmd := &cobra.Command{
		Use:   "resolve <request-id> <approve|reject>",
		Short: "Approve or reject a request (admin)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, args[0], args[1], note)
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "note recorded with the decision")

	return cmd
}

func runResolve(cmd *cobra.Command, idArg, decisionArg, note string) error {
	id, err := parseID(idArg, "request")
	if err != nil {
		return err
	}
	decision := verification.Decision(decisionArg)
	if !decision.IsValid() {
		return eris.Errorf("decision must be approve or reject, got %q", decisionArg)
	}

	req, err := newAPIClient().ResolveVerification(cmdContext(cmd), id, decision, note)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), req)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Request #%d %s; listing #%d updated.\n", req.ID, req.Status, req.ListingID)
	return nil
}

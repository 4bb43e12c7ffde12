package cli

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/evcraddock/rental-arb/internal/client"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check connection and auth status",
		Long:  "Tests the connection to the server and checks if the stored API key is valid.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd)
		},
	}
}

func runStatus(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	serverURL := getServerURL()
	apiKey := getAPIKey()

	fmt.Fprintf(out, "Server:  %s\n", serverURL)

	if apiKey == "" {
		fmt.Fprintln(out, "API Key: not configured")
		fmt.Fprintln(out, "\nRun 'arb login' to authenticate.")
		return nil
	}

	prefix := apiKey
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	fmt.Fprintf(out, "API Key: %s…\n", prefix)

	me, err := client.New(serverURL, apiKey).Me(cmdContext(cmd))
	switch {
	case err == nil:
		fmt.Fprintln(out, "Status:  ✓ connected and authenticated")
		fmt.Fprintf(out, "User:    %s (%s)\n", me.Email, me.Tier)
	case client.StatusCode(err) == http.StatusUnauthorized:
		fmt.Fprintln(out, "Status:  ✗ invalid API key")
		fmt.Fprintln(out, "\nRun 'arb login' to re-authenticate.")
	case client.StatusCode(err) == 0:
		fmt.Fprintf(out, "Status:  ✗ cannot reach server (%v)\n", err)
	default:
		fmt.Fprintf(out, "Status:  ✗ unexpected response (%d)\n", client.StatusCode(err))
	}

	return nil
}

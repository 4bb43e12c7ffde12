// Package cli defines the cobra command tree for rental-arb.
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/evcraddock/rental-arb/internal/client"
	"github.com/evcraddock/rental-arb/internal/config"
	"github.com/evcraddock/rental-arb/internal/db"
)

var (
	flagFormat string
	flagDB     string
	flagConfig string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "arb",
		Short: "Score rental arbitrage deals",
		Long: "Track long-term rentals as short-term rental arbitrage leads. Score them, project ROI, " +
			"request verification and email deal reports via the CLI or the JSON API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flagFormat != "text" && flagFormat != "json" {
				return eris.Errorf("invalid --format %q (text|json)", flagFormat)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path for serve (default: ~/.rental-arb/arb.db)")
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "server config file (default: ./arb.yaml or ~/.config/arb/arb.yaml)")

	root.AddCommand(
		newAddCmd(),
		newListCmd(),
		newShowCmd(),
		newNotesCmd(),
		newRemoveCmd(),
		newScoreCmd(),
		newRefreshCmd(),
		newEstimateCmd(),
		newROICmd(),
		newQuickCmd(),
		newVerifyCmd(),
		newVerificationsCmd(),
		newAnalysesCmd(),
		newReportCmd(),
		newUsersCmd(),
		newServeCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)

	return root
}

// openDB opens the SQLite database using the --db flag or the configured path.
func openDB(cfg *config.Config) (*sql.DB, error) {
	path := flagDB
	if path == "" {
		path = cfg.Store.Path
	}
	return db.Open(path)
}

// newAPIClient creates an HTTP client for the rental-arb API.
func newAPIClient() *client.Client {
	return client.New(getServerURL(), getAPIKey())
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// closeDB closes the database, logging any error to stderr.
func closeDB(database *sql.DB) {
	if err := database.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing database: %v\n", err)
	}
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, eris.Errorf("invalid %s ID: %s", what, s)
	}
	return id, nil
}

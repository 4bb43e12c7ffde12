package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove stored API key",
		Long:  "Removes the stored API key from the config file. The key stays valid on the server until deleted there.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(cmd)
		},
	}
}

func runLogout(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if cfg.APIKey == "" {
		fmt.Fprintln(out, "Not logged in.")
		return nil
	}

	cfg.APIKey = ""
	if err := saveConfig(cfg); err != nil {
		return err
	}

	fmt.Fprintln(out, "✓ Logged out. API key removed.")
	return nil
}

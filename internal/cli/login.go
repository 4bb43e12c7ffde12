package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/evcraddock/rental-arb/internal/client"
)

const apiKeyPrefix = "arb_"

func newLoginCmd() *cobra.Command {
	var server, email string
	var pasteKey bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store an API key",
		Long: `Log in by email. The server sends a one-time code; paste it here to
receive an API key for this machine. Use --key to paste an existing key.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, server, email, pasteKey)
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "server URL (default: from config or "+defaultServerURL+")")
	cmd.Flags().StringVar(&email, "email", "", "account email (prompted when empty)")
	cmd.Flags().BoolVar(&pasteKey, "key", false, "paste an existing API key instead of emailing a code")

	return cmd
}

func runLogin(cmd *cobra.Command, serverFlag, email string, pasteKey bool) error {
	serverURL := serverFlag
	if serverURL == "" {
		serverURL = getServerURL()
	}

	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	var key string
	var err error
	if pasteKey {
		key, err = prompt(in, out, "Paste your API key: ")
		if err != nil {
			return err
		}
	} else {
		key, err = emailLogin(cmd, client.New(serverURL, ""), in, email)
		if err != nil {
			return err
		}
	}

	if err := validateAPIKey(key); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		cfg = CLIConfig{}
	}
	cfg.APIKey = key
	if serverFlag != "" {
		cfg.ServerURL = serverFlag
	}

	if err := saveConfig(cfg); err != nil {
		return err
	}

	fmt.Fprintln(out, "✓ API key saved. You're logged in!")
	return nil
}

// emailLogin requests a login code and exchanges it for a new key.
func emailLogin(cmd *cobra.Command, c *client.Client, in *bufio.Reader, email string) (string, error) {
	out := cmd.OutOrStdout()
	ctx := cmdContext(cmd)

	if email == "" {
		var err error
		if email, err = prompt(in, out, "Email: "); err != nil {
			return "", err
		}
	}
	if email == "" {
		return "", eris.New("no email provided")
	}

	if err := c.RequestLogin(ctx, email); err != nil {
		return "", err
	}
	fmt.Fprintln(out, "If that address is authorized, a login code is on its way.")

	code, err := prompt(in, out, "Code: ")
	if err != nil {
		return "", err
	}
	if code == "" {
		return "", eris.New("no code provided")
	}

	resp, err := c.CLIExchange(ctx, code, keyName())
	if err != nil {
		return "", err
	}
	return resp.Key, nil
}

func prompt(in *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := in.ReadString('\n')
	if err != nil && !(eris.Is(err, io.EOF) && line != "") {
		return "", eris.Wrap(err, "reading input")
	}
	return strings.TrimSpace(line), nil
}

// keyName labels the issued key with this machine's hostname.
func keyName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "cli"
	}
	return "cli@" + host
}

// validateAPIKey checks that the key is non-empty and has the expected prefix.
func validateAPIKey(key string) error {
	if key == "" {
		return eris.New("no API key provided")
	}
	if !strings.HasPrefix(key, apiKeyPrefix) {
		return eris.Errorf("invalid API key format (should start with %s)", apiKeyPrefix)
	}
	return nil
}

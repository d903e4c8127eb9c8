package main

import (
	"fmt"
	"os"
	"time"

	"github.com/lumora-ai/botgate/internal/session"
	"github.com/lumora-ai/botgate/internal/version"
	"github.com/spf13/cobra"
)

// resolveServerURL returns the server URL from the flag or BOTGATE_SERVER_URL
// env var. Prints a warning to stderr when falling back to the env var.
// Returns an error if neither is set.
func resolveServerURL(cmd *cobra.Command, flagValue string) (string, error) {
	normalize := func(v string) string {
		for len(v) > 0 && v[len(v)-1] == '/' {
			v = v[:len(v)-1]
		}
		return v
	}
	if cmd.Flags().Changed("server") {
		return normalize(flagValue), nil
	}
	if v := os.Getenv("BOTGATE_SERVER_URL"); v != "" {
		fmt.Fprintf(os.Stderr, "botgate: WARNING: using server URL from BOTGATE_SERVER_URL environment variable\n")
		return normalize(v), nil
	}
	return "", fmt.Errorf("server URL required: use --server flag or set BOTGATE_SERVER_URL")
}

// resolveSessionToken returns the session bearer token from the flag or
// BOTGATE_SESSION env var.
func resolveSessionToken(cmd *cobra.Command, flagValue string) (string, error) {
	if cmd.Flags().Changed("session") {
		return flagValue, nil
	}
	if v := os.Getenv("BOTGATE_SESSION"); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("session token required: use --session flag or set BOTGATE_SESSION")
}

func main() {
	rootCmd := &cobra.Command{
		Use:     "botgate",
		Short:   "botgate - OAuth connections and bot deployments for the agent dashboard",
		Version: version.Version,
	}
	rootCmd.SetVersionTemplate(version.String("botgate") + "\n")

	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newDeployCmd())
	rootCmd.AddCommand(newSessionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newSessionCmd() *cobra.Command {
	var (
		userID string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Mint a signed session token for a user (requires BOTGATE_SESSION_SECRET)",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := os.Getenv("BOTGATE_SESSION_SECRET")
			if secret == "" {
				return fmt.Errorf("BOTGATE_SESSION_SECRET is required")
			}
			if userID == "" {
				return fmt.Errorf("--user is required")
			}
			fmt.Println(session.Mint([]byte(secret), userID, ttl))
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User identity to mint the session for")
	cmd.Flags().DurationVar(&ttl, "ttl", session.DefaultTTL, "Session lifetime")
	return cmd
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"
)

func apiClient() *http.Client {
	return &http.Client{Timeout: 20 * time.Second}
}

// apiGet issues an authenticated GET and decodes the JSON response.
func apiGet(serverURL, sessionToken, path string, out any) error {
	req, err := http.NewRequest(http.MethodGet, serverURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+sessionToken)

	resp, err := apiClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, body)
	}
	return json.Unmarshal(body, out)
}

func newStatusCmd() *cobra.Command {
	var (
		serverURL    string
		sessionToken string
		service      string
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the connection status for a service",
		RunE: func(cmd *cobra.Command, args []string) error {
			server, err := resolveServerURL(cmd, serverURL)
			if err != nil {
				return err
			}
			token, err := resolveSessionToken(cmd, sessionToken)
			if err != nil {
				return err
			}
			if service == "" {
				return fmt.Errorf("--service is required")
			}

			var status struct {
				Authenticated    bool   `json:"authenticated"`
				Reason           string `json:"reason"`
				Provider         string `json:"provider"`
				Scope            string `json:"scope"`
				ExpiresInSeconds int    `json:"expiresInSeconds"`
			}
			if err := apiGet(server, token, "/auth/status?service="+url.QueryEscape(service), &status); err != nil {
				return err
			}

			if !status.Authenticated {
				fmt.Printf("%s: not connected (%s)\n", service, status.Reason)
				return nil
			}
			fmt.Printf("%s: connected via %s, expires in %s\n",
				service, status.Provider, time.Duration(status.ExpiresInSeconds)*time.Second)
			if status.Scope != "" {
				fmt.Printf("scopes: %s\n", status.Scope)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "", "Botgate server URL (or BOTGATE_SERVER_URL)")
	cmd.Flags().StringVar(&sessionToken, "session", "", "Session bearer token (or BOTGATE_SESSION)")
	cmd.Flags().StringVar(&service, "service", "", "Service to check: gmail|calendar|drive|meeting")
	return cmd
}

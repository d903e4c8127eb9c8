package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"
)

// apiPost issues an authenticated JSON POST and decodes the JSON response.
func apiPost(serverURL, sessionToken, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, serverURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+sessionToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := apiClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, raw)
	}
	return json.Unmarshal(raw, out)
}

func newDeployCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Validate bot credentials and deploy to a messaging platform",
	}
	cmd.AddCommand(newDeployDiscordCmd())
	cmd.AddCommand(newDeployTelegramCmd())
	return cmd
}

func newDeployDiscordCmd() *cobra.Command {
	var (
		serverURL    string
		sessionToken string
		botID        string
		botName      string
		token        string
		clientID     string
	)

	cmd := &cobra.Command{
		Use:   "discord",
		Short: "Validate a Discord bot token and print the install URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			server, err := resolveServerURL(cmd, serverURL)
			if err != nil {
				return err
			}
			session, err := resolveSessionToken(cmd, sessionToken)
			if err != nil {
				return err
			}

			var res struct {
				Success    bool `json:"success"`
				BotDetails struct {
					Username string `json:"username"`
					ID       string `json:"id"`
				} `json:"botDetails"`
				InviteURL string `json:"inviteUrl"`
			}
			body := map[string]string{
				"botId": botID, "botName": botName, "token": token, "clientId": clientID,
			}
			if err := apiPost(server, session, "/deploy/discord", body, &res); err != nil {
				return err
			}

			fmt.Printf("validated: %s (id=%s)\n", res.BotDetails.Username, res.BotDetails.ID)
			fmt.Printf("install URL: %s\n", res.InviteURL)
			return nil
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "", "Botgate server URL (or BOTGATE_SERVER_URL)")
	cmd.Flags().StringVar(&sessionToken, "session", "", "Session bearer token (or BOTGATE_SESSION)")
	cmd.Flags().StringVar(&botID, "bot-id", "", "Internal bot identifier")
	cmd.Flags().StringVar(&botName, "bot-name", "", "Display name")
	cmd.Flags().StringVar(&token, "token", "", "Discord bot token")
	cmd.Flags().StringVar(&clientID, "client-id", "", "Discord application client id")
	cmd.MarkFlagRequired("bot-id")
	cmd.MarkFlagRequired("token")
	cmd.MarkFlagRequired("client-id")
	return cmd
}

func newDeployTelegramCmd() *cobra.Command {
	var (
		serverURL    string
		sessionToken string
		botID        string
		botName      string
		token        string
	)

	cmd := &cobra.Command{
		Use:   "telegram",
		Short: "Validate a Telegram bot token and register its webhook",
		RunE: func(cmd *cobra.Command, args []string) error {
			server, err := resolveServerURL(cmd, serverURL)
			if err != nil {
				return err
			}
			session, err := resolveSessionToken(cmd, sessionToken)
			if err != nil {
				return err
			}

			var res struct {
				Success  bool   `json:"success"`
				Username string `json:"username"`
			}
			body := map[string]string{"botId": botID, "botName": botName, "token": token}
			if err := apiPost(server, session, "/deploy/telegram", body, &res); err != nil {
				return err
			}

			fmt.Printf("validated: @%s, webhook registered\n", res.Username)
			return nil
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "", "Botgate server URL (or BOTGATE_SERVER_URL)")
	cmd.Flags().StringVar(&sessionToken, "session", "", "Session bearer token (or BOTGATE_SESSION)")
	cmd.Flags().StringVar(&botID, "bot-id", "", "Internal bot identifier")
	cmd.Flags().StringVar(&botName, "bot-name", "", "Display name")
	cmd.Flags().StringVar(&token, "token", "", "Telegram bot token")
	cmd.MarkFlagRequired("bot-id")
	cmd.MarkFlagRequired("token")
	return cmd
}

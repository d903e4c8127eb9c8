package deploy

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/lumora-ai/botgate/internal/logx"
)

// discordInviteBase is where users install the bot into a guild.
const discordInviteBase = "https://discord.com/oauth2/authorize"

// discordPermissions is the permission bitmask embedded in the install URL:
// view channels, send messages, embed links, attach files, read history,
// use slash commands.
const discordPermissions = 277025508352

var discordInviteScopes = []string{"bot", "applications.commands"}

// discordUser is the response schema of GET /users/@me.
type discordUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Bot      bool   `json:"bot"`
	Message  string `json:"message"` // set on error responses
}

// DiscordResult reports a validated Discord bot.
type DiscordResult struct {
	ID        string
	Username  string
	InviteURL string
}

// ValidateDiscord checks the bot token against the Discord identity endpoint
// and computes the guild install URL. Fails with ErrInvalidCredential when
// the token is rejected; no registration call is made in that case.
func (c *Client) ValidateDiscord(ctx context.Context, token, clientID string) (*DiscordResult, error) {
	var user discordUser
	status, err := c.http.DoJSON(ctx, http.MethodGet, c.discordAPI+"/users/@me",
		map[string]string{"Authorization": "Bot " + token}, nil, &user)
	if err != nil {
		return nil, fmt.Errorf("discord identity check: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: discord returned status %d: %s", ErrInvalidCredential, status, user.Message)
	}
	if user.ID == "" {
		return nil, fmt.Errorf("%w: discord identity response missing id", ErrInvalidCredential)
	}

	q := url.Values{}
	q.Set("client_id", clientID)
	q.Set("permissions", fmt.Sprintf("%d", discordPermissions))
	q.Set("scope", discordInviteScopes[0]+" "+discordInviteScopes[1])

	logx.Infof("discord bot validated: id=%s username=%s", user.ID, user.Username)

	return &DiscordResult{
		ID:        user.ID,
		Username:  user.Username,
		InviteURL: discordInviteBase + "?" + q.Encode(),
	}, nil
}

package deploy

import (
	"context"
	"fmt"
	"net/http"

	"github.com/lumora-ai/botgate/internal/logx"
)

// telegramEnvelope is the getMe response wrapper, where result is the bot's
// User object.
type telegramEnvelope struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
		IsBot    bool   `json:"is_bot"`
	} `json:"result"`
}

// telegramWebhookAck is the setWebhook response wrapper. Unlike getMe, its
// result is a plain boolean.
type telegramWebhookAck struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      bool   `json:"result"`
}

// TelegramResult reports a validated Telegram bot and its registered webhook.
type TelegramResult struct {
	Username   string
	WebhookURL string
}

// WebhookURL returns the public callback endpoint registered for a bot.
func WebhookURL(origin, botID string) string {
	return origin + "/api/webhook/telegram/" + botID
}

// ValidateTelegram checks the bot token via getMe and registers the inbound
// webhook for botID, asking the platform to drop pending updates. A rejected
// token fails with ErrInvalidCredential before any webhook call; a rejected
// registration fails with ErrWebhookRegistrationFailed.
func (c *Client) ValidateTelegram(ctx context.Context, token, botID, origin string) (*TelegramResult, error) {
	var me telegramEnvelope
	status, err := c.http.DoJSON(ctx, http.MethodGet, c.telegramAPI+"/bot"+token+"/getMe", nil, nil, &me)
	if err != nil {
		return nil, fmt.Errorf("telegram getMe: %w", err)
	}
	if status != http.StatusOK || !me.OK {
		return nil, fmt.Errorf("%w: telegram rejected token: %s", ErrInvalidCredential, me.Description)
	}

	hookURL := WebhookURL(origin, botID)
	var hook telegramWebhookAck
	body := map[string]any{
		"url":                  hookURL,
		"drop_pending_updates": true,
	}
	status, err = c.http.DoJSON(ctx, http.MethodPost, c.telegramAPI+"/bot"+token+"/setWebhook", nil, body, &hook)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWebhookRegistrationFailed, err)
	}
	if status != http.StatusOK || !hook.OK {
		return nil, fmt.Errorf("%w: telegram returned status %d: %s", ErrWebhookRegistrationFailed, status, hook.Description)
	}

	logx.Infof("telegram bot validated: username=%s webhook=%s", me.Result.Username, hookURL)

	return &TelegramResult{Username: me.Result.Username, WebhookURL: hookURL}, nil
}

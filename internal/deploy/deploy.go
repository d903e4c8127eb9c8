// Package deploy validates bot credentials against the messaging platforms
// and registers inbound webhooks. Validators are idempotent: re-invoking with
// the same credential re-confirms validity or re-registers the same webhook.
package deploy

import (
	"errors"
	"time"

	"github.com/lumora-ai/botgate/internal/httpx"
)

var (
	// ErrInvalidCredential is returned when the platform identity endpoint
	// rejects the supplied bot token.
	ErrInvalidCredential = errors.New("invalid bot credential")
	// ErrWebhookRegistrationFailed is returned when the credential was
	// accepted but the webhook registration was rejected. Callers must be
	// able to tell this apart from ErrInvalidCredential.
	ErrWebhookRegistrationFailed = errors.New("webhook registration failed")
)

const (
	defaultDiscordAPI  = "https://discord.com/api/v10"
	defaultTelegramAPI = "https://api.telegram.org"

	outboundTimeout = 15 * time.Second
)

// Client talks to the Discord and Telegram APIs. API bases are overridable so
// tests can point at synthetic servers.
type Client struct {
	http        *httpx.Client
	discordAPI  string
	telegramAPI string
}

// Option customizes a Client.
type Option func(*Client)

// WithDiscordAPI overrides the Discord API base URL.
func WithDiscordAPI(base string) Option {
	return func(c *Client) { c.discordAPI = base }
}

// WithTelegramAPI overrides the Telegram API base URL.
func WithTelegramAPI(base string) Option {
	return func(c *Client) { c.telegramAPI = base }
}

// WithHTTPClient overrides the outbound HTTP client.
func WithHTTPClient(hc *httpx.Client) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient returns a deployment validation client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http:        httpx.NewClient(outboundTimeout),
		discordAPI:  defaultDiscordAPI,
		telegramAPI: defaultTelegramAPI,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

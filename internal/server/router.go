package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lumora-ai/botgate/internal/deploy"
	"github.com/lumora-ai/botgate/internal/metrics"
	"github.com/lumora-ai/botgate/internal/oauth"
	"github.com/lumora-ai/botgate/internal/redact"
	"github.com/lumora-ai/botgate/internal/server/db"
	"github.com/lumora-ai/botgate/internal/server/handler"
	"github.com/patrickmn/go-cache"
)

// webhookDedupTTL is how long a Telegram update_id is remembered for
// redelivery suppression.
const webhookDedupTTL = 10 * time.Minute

// NewRouter creates and configures the Gin router with all routes.
func NewRouter(store *db.Store, cfg *Config, reg *oauth.Registry, dc *deploy.Client, sink *redact.MaskingWriter) *gin.Engine {
	r := gin.Default()

	if len(cfg.CORSOrigins) > 0 {
		r.Use(CORS(cfg.CORSOrigins))
	}

	r.GET("/", func(c *gin.Context) {
		c.String(200, "ok")
	})
	r.GET("/healthz", func(c *gin.Context) {
		c.String(200, "ok")
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	auth := SessionAuth(cfg.SessionSecret)
	seenUpdates := cache.New(webhookDedupTTL, 2*webhookDedupTTL)

	// OAuth connection lifecycle
	r.GET("/auth/status", auth, handler.HandleAuthStatus(store))
	r.POST("/auth/refresh", auth, handler.HandleRefresh(store, reg, cfg.MasterKey, sink))
	r.GET("/auth/:provider", auth, handler.HandleAuthorize(store, reg, cfg.MasterKey))
	r.DELETE("/auth/:provider", auth, handler.HandleDisconnect(store))

	// Provider redirects land here carrying code+state; the browser has no
	// session header, identity rides in the signed state.
	r.GET("/auth/:provider/callback", handler.HandleCallback(store, reg, cfg.MasterKey, cfg.UIOrigin, sink))

	// Bot deployment
	r.POST("/deploy/discord", auth, handler.HandleDeployDiscord(dc, sink))
	r.POST("/deploy/telegram", auth, handler.HandleDeployTelegram(dc, cfg.BaseURL, sink))

	// Inbound platform callbacks
	r.POST("/api/webhook/telegram/:bot_id", handler.HandleTelegramWebhook(seenUpdates))

	return r
}

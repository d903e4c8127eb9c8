package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lumora-ai/botgate/internal/logx"
	"github.com/lumora-ai/botgate/internal/metrics"
	"github.com/patrickmn/go-cache"
)

// telegramUpdate is the subset of an inbound update the gateway looks at.
type telegramUpdate struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		MessageID int64  `json:"message_id"`
		Text      string `json:"text"`
		Chat      struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

// HandleTelegramWebhook handles POST /api/webhook/telegram/:bot_id. It always
// answers {"status":"ok"} inside the provider timeout — anything else makes
// Telegram queue retries. Updates already seen (provider redelivery) are
// dropped via the dedup cache.
func HandleTelegramWebhook(seen *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		botID := c.Param("bot_id")

		var update telegramUpdate
		if err := c.ShouldBindJSON(&update); err != nil {
			logx.Warnf("telegram webhook: bot=%s unparseable update: %v", botID, err)
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}

		key := fmt.Sprintf("%s:%d", botID, update.UpdateID)
		if _, dup := seen.Get(key); dup {
			logx.Debugf("telegram webhook: bot=%s duplicate update_id=%d", botID, update.UpdateID)
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		seen.SetDefault(key, struct{}{})

		metrics.WebhookUpdates.Inc()
		if update.Message != nil {
			logx.Debugf("telegram webhook: bot=%s update_id=%d chat=%d", botID, update.UpdateID, update.Message.Chat.ID)
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lumora-ai/botgate/internal/deploy"
	"github.com/lumora-ai/botgate/internal/logx"
	"github.com/lumora-ai/botgate/internal/metrics"
	"github.com/lumora-ai/botgate/internal/redact"
)

type deployDiscordRequest struct {
	BotID    string `json:"botId" binding:"required"`
	BotName  string `json:"botName"`
	Token    string `json:"token" binding:"required"`
	ClientID string `json:"clientId" binding:"required"`
}

type deployTelegramRequest struct {
	BotID   string `json:"botId" binding:"required"`
	BotName string `json:"botName"`
	Token   string `json:"token" binding:"required"`
}

// HandleDeployDiscord handles POST /deploy/discord.
func HandleDeployDiscord(dc *deploy.Client, sink *redact.MaskingWriter) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req deployDiscordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if sink != nil {
			sink.Add(req.Token)
		}

		res, err := dc.ValidateDiscord(c.Request.Context(), req.Token, req.ClientID)
		if err != nil {
			metrics.Deployments.WithLabelValues("discord", "failed").Inc()
			if errors.Is(err, deploy.ErrInvalidCredential) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bot token"})
				return
			}
			logx.Errorf("discord validation: bot=%s err=%v", req.BotID, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "discord unreachable"})
			return
		}

		metrics.Deployments.WithLabelValues("discord", "ok").Inc()
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"botDetails": gin.H{
				"username": res.Username,
				"id":       res.ID,
			},
			"inviteUrl": res.InviteURL,
		})
	}
}

// HandleDeployTelegram handles POST /deploy/telegram. A rejected credential
// and a rejected webhook registration are reported as distinct errors.
func HandleDeployTelegram(dc *deploy.Client, origin string, sink *redact.MaskingWriter) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req deployTelegramRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if sink != nil {
			sink.Add(req.Token)
		}

		res, err := dc.ValidateTelegram(c.Request.Context(), req.Token, req.BotID, origin)
		if err != nil {
			metrics.Deployments.WithLabelValues("telegram", "failed").Inc()
			switch {
			case errors.Is(err, deploy.ErrInvalidCredential):
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bot token"})
			case errors.Is(err, deploy.ErrWebhookRegistrationFailed):
				logx.Errorf("telegram webhook registration: bot=%s err=%v", req.BotID, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "webhook registration failed"})
			default:
				logx.Errorf("telegram validation: bot=%s err=%v", req.BotID, err)
				c.JSON(http.StatusBadGateway, gin.H{"error": "telegram unreachable"})
			}
			return
		}

		metrics.Deployments.WithLabelValues("telegram", "ok").Inc()
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"username": res.Username,
		})
	}
}

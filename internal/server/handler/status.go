package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lumora-ai/botgate/internal/server/db"
)

// statusResponse never carries token material, only derived facts.
// ExpiresInSeconds has no omitempty: a live token with under a second left
// still reports the field, as 0.
type statusResponse struct {
	Authenticated    bool   `json:"authenticated"`
	Reason           string `json:"reason,omitempty"`
	Provider         string `json:"provider,omitempty"`
	Scope            string `json:"scope,omitempty"`
	ExpiresInSeconds int    `json:"expiresInSeconds"`
}

// HandleAuthStatus handles GET /auth/status?service=<service>. A record past
// its expiry reports reason "expired"; this path never refreshes tokens (the
// refresh grant is a separate, explicit operation).
func HandleAuthStatus(store *db.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		service := c.Query("service")
		if service == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "service query parameter is required"})
			return
		}

		rec, err := store.GetTokenByService(UserID(c), service)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token lookup failed"})
			return
		}
		if rec == nil {
			c.JSON(http.StatusOK, statusResponse{Authenticated: false, Reason: "not_found"})
			return
		}
		if len(rec.AccessEncrypted) == 0 {
			c.JSON(http.StatusOK, statusResponse{Authenticated: false, Reason: "invalid"})
			return
		}

		now := time.Now()
		if rec.Expired(now) {
			c.JSON(http.StatusOK, statusResponse{Authenticated: false, Reason: "expired", Provider: rec.Provider})
			return
		}

		c.JSON(http.StatusOK, statusResponse{
			Authenticated:    true,
			Provider:         rec.Provider,
			Scope:            rec.Scope,
			ExpiresInSeconds: int(rec.ExpiresAt.Sub(now).Seconds()),
		})
	}
}

package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lumora-ai/botgate/internal/deploy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goodDiscordToken = "good-discord-token"

func newFakeDiscord(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/@me" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bot "+goodDiscordToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"id": "111222333", "username": "helperbot"})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, r *gin.Engine, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestDeployDiscordSuccess(t *testing.T) {
	srv := newFakeDiscord(t)
	dc := deploy.NewClient(deploy.WithDiscordAPI(srv.URL))

	r := gin.New()
	r.POST("/deploy/discord", asUser("user-1"), HandleDeployDiscord(dc, nil))

	w := postJSON(t, r, "/deploy/discord",
		`{"botId":"bot-1","botName":"Helper","token":"`+goodDiscordToken+`","clientId":"999888777"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var res struct {
		Success    bool `json:"success"`
		BotDetails struct {
			Username string `json:"username"`
			ID       string `json:"id"`
		} `json:"botDetails"`
		InviteURL string `json:"inviteUrl"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.Success)
	assert.Equal(t, "helperbot", res.BotDetails.Username)
	assert.Equal(t, "111222333", res.BotDetails.ID)
	assert.Contains(t, res.InviteURL, "client_id=999888777")
	assert.Contains(t, res.InviteURL, "discord.com/oauth2/authorize")

	// The supplied token never appears in the response.
	assert.NotContains(t, w.Body.String(), goodDiscordToken)
}

func TestDeployDiscordInvalidToken(t *testing.T) {
	srv := newFakeDiscord(t)
	dc := deploy.NewClient(deploy.WithDiscordAPI(srv.URL))

	r := gin.New()
	r.POST("/deploy/discord", asUser("user-1"), HandleDeployDiscord(dc, nil))

	w := postJSON(t, r, "/deploy/discord",
		`{"botId":"bot-1","token":"wrong-token","clientId":"999888777"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid bot token")
	assert.NotContains(t, w.Body.String(), "wrong-token")
}

func TestDeployDiscordMissingFields(t *testing.T) {
	dc := deploy.NewClient()
	r := gin.New()
	r.POST("/deploy/discord", asUser("user-1"), HandleDeployDiscord(dc, nil))

	w := postJSON(t, r, "/deploy/discord", `{"botId":"bot-1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeployTelegramSuccess(t *testing.T) {
	var webhookURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			json.NewEncoder(w).Encode(map[string]any{
				"ok":     true,
				"result": map[string]any{"id": 42, "username": "helper_bot"},
			})
		case strings.HasSuffix(r.URL.Path, "/setWebhook"):
			var body struct {
				URL string `json:"url"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			webhookURL = body.URL
			json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": true})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	dc := deploy.NewClient(deploy.WithTelegramAPI(srv.URL))
	r := gin.New()
	r.POST("/deploy/telegram", asUser("user-1"), HandleDeployTelegram(dc, "https://gateway.test", nil))

	w := postJSON(t, r, "/deploy/telegram", `{"botId":"bot-9","token":"tg-token"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"helper_bot"`)
	assert.Equal(t, "https://gateway.test/api/webhook/telegram/bot-9", webhookURL)
}

func TestDeployTelegramWebhookFailureIsDistinct(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/getMe") {
			json.NewEncoder(w).Encode(map[string]any{
				"ok":     true,
				"result": map[string]any{"id": 42, "username": "helper_bot"},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"ok": false, "description": "bad webhook url"})
	}))
	defer srv.Close()

	dc := deploy.NewClient(deploy.WithTelegramAPI(srv.URL))
	r := gin.New()
	r.POST("/deploy/telegram", asUser("user-1"), HandleDeployTelegram(dc, "https://gateway.test", nil))

	w := postJSON(t, r, "/deploy/telegram", `{"botId":"bot-9","token":"tg-token"}`)

	// Valid credential but failed registration is a server-side error, not 400.
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "webhook registration failed")
}

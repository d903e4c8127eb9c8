package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lumora-ai/botgate/internal/crypto"
	"github.com/lumora-ai/botgate/internal/server/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStatusRouter(store *db.Store) *gin.Engine {
	r := gin.New()
	r.GET("/auth/status", asUser("user-1"), HandleAuthStatus(store))
	return r
}

func getStatus(t *testing.T, r *gin.Engine, target string) (int, statusResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	var res statusResponse
	if w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	}
	return w.Code, res
}

func putToken(t *testing.T, store *db.Store, service, plaintext string, expiresAt time.Time) {
	t.Helper()
	enc, err := crypto.EncryptAtRest(testKey, []byte(plaintext))
	require.NoError(t, err)
	require.NoError(t, store.UpsertToken(&db.TokenRecord{
		UserID:          "user-1",
		Provider:        "google",
		Service:         service,
		AccessEncrypted: enc,
		ExpiresAt:       expiresAt,
		Scope:           "https://www.googleapis.com/auth/calendar",
	}))
}

func TestStatusRequiresService(t *testing.T) {
	r := newStatusRouter(testStore(t))
	code, _ := getStatus(t, r, "/auth/status")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestStatusNotFound(t *testing.T) {
	r := newStatusRouter(testStore(t))
	code, res := getStatus(t, r, "/auth/status?service=calendar")
	require.Equal(t, http.StatusOK, code)
	assert.False(t, res.Authenticated)
	assert.Equal(t, "not_found", res.Reason)
}

func TestStatusExpired(t *testing.T) {
	store := testStore(t)
	putToken(t, store, "calendar", "secret-access", time.Now().Add(-time.Second))
	r := newStatusRouter(store)

	code, res := getStatus(t, r, "/auth/status?service=calendar")
	require.Equal(t, http.StatusOK, code)
	assert.False(t, res.Authenticated)
	assert.Equal(t, "expired", res.Reason)
	assert.Equal(t, "google", res.Provider)
}

func TestStatusAuthenticated(t *testing.T) {
	store := testStore(t)
	putToken(t, store, "calendar", "secret-access", time.Now().Add(time.Hour))
	r := newStatusRouter(store)

	code, res := getStatus(t, r, "/auth/status?service=calendar")
	require.Equal(t, http.StatusOK, code)
	assert.True(t, res.Authenticated)
	assert.Empty(t, res.Reason)
	assert.Equal(t, "google", res.Provider)
	assert.Equal(t, "https://www.googleapis.com/auth/calendar", res.Scope)
	assert.InDelta(t, 3600, res.ExpiresInSeconds, 30)
}

func TestStatusNeverExposesTokenMaterial(t *testing.T) {
	store := testStore(t)
	putToken(t, store, "calendar", "super-secret-access-token", time.Now().Add(time.Hour))
	r := newStatusRouter(store)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/status?service=calendar", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "super-secret-access-token")
	assert.NotContains(t, w.Body.String(), "access")
}

func TestStatusBoundaryJustBeforeExpiry(t *testing.T) {
	store := testStore(t)
	putToken(t, store, "calendar", "secret-access", time.Now().Add(2*time.Second))
	r := newStatusRouter(store)

	code, res := getStatus(t, r, "/auth/status?service=calendar")
	require.Equal(t, http.StatusOK, code)
	assert.True(t, res.Authenticated)
}

func TestStatusAlwaysCarriesExpiresInSeconds(t *testing.T) {
	store := testStore(t)
	// Under one whole second left: still authenticated, expiresInSeconds 0.
	putToken(t, store, "calendar", "secret-access", time.Now().Add(900*time.Millisecond))
	r := newStatusRouter(store)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/status?service=calendar", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	require.Equal(t, true, raw["authenticated"])
	_, present := raw["expiresInSeconds"]
	assert.True(t, present, "expiresInSeconds must not be dropped at the 0 boundary")
	assert.EqualValues(t, 0, raw["expiresInSeconds"])
}

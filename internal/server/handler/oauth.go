package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lumora-ai/botgate/internal/crypto"
	"github.com/lumora-ai/botgate/internal/logx"
	"github.com/lumora-ai/botgate/internal/metrics"
	"github.com/lumora-ai/botgate/internal/oauth"
	"github.com/lumora-ai/botgate/internal/redact"
	"github.com/lumora-ai/botgate/internal/server/db"
)

const (
	stateCookie     = "oauth_state"
	exchangeTimeout = 15 * time.Second
)

// HandleAuthorize handles GET /auth/:provider. It issues a fresh anti-forgery
// state bound to the session user, the requested service and the originating
// UI component, records the state nonce, and redirects to the provider
// authorization endpoint.
func HandleAuthorize(store *db.Store, reg *oauth.Registry, masterKey [32]byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		provider := oauth.Provider(c.Param("provider"))
		service := oauth.Service(c.Query("service"))
		componentID := c.Query("component_id")

		if service == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "service query parameter is required"})
			return
		}
		if !oauth.Supported(provider, service) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported provider/service: " + string(provider) + "/" + string(service)})
			return
		}

		nonce, err := oauth.NewNonce()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate state"})
			return
		}

		// Abandoned flows pile up otherwise; there is no background sweeper.
		if _, err := store.PurgeExpiredStates(time.Now()); err != nil {
			logx.Warnf("purge expired states: %v", err)
		}

		userID := UserID(c)
		if err := store.PutState(&db.AuthState{
			Nonce:       nonce,
			UserID:      userID,
			Provider:    string(provider),
			Service:     string(service),
			ComponentID: componentID,
			ExpiresAt:   time.Now().Add(oauth.StateMaxAge),
		}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist state"})
			return
		}

		state, err := oauth.MakeState(oauth.StatePayload{
			UserID:      userID,
			Provider:    provider,
			Service:     service,
			ComponentID: componentID,
			Nonce:       nonce,
		}, masterKey)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign state"})
			return
		}

		authURL, err := reg.AuthCodeURL(provider, service, state)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		metrics.AuthFlowsStarted.WithLabelValues(string(provider)).Inc()

		c.SetCookie(stateCookie, state, int(oauth.StateMaxAge.Seconds()), "/", "", false, true)
		c.Redirect(http.StatusFound, authURL)
	}
}

// HandleCallback handles GET /auth/:provider/callback. The echoed state must
// match the oauth_state cookie, carry a valid signature, and resolve to an
// unconsumed nonce — all before any token exchange call is attempted.
func HandleCallback(store *db.Store, reg *oauth.Registry, masterKey [32]byte, uiOrigin string, sink *redact.MaskingWriter) gin.HandlerFunc {
	return func(c *gin.Context) {
		provider := oauth.Provider(c.Param("provider"))
		code := c.Query("code")
		state := c.Query("state")

		if code == "" || state == "" {
			metrics.AuthFlowsFailed.WithLabelValues("missing_params").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing code or state"})
			return
		}

		cookie, err := c.Cookie(stateCookie)
		if err != nil || cookie != state {
			metrics.AuthFlowsFailed.WithLabelValues("state_mismatch").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "oauth state mismatch"})
			return
		}

		payload, err := oauth.VerifyState(state, masterKey)
		if err != nil {
			metrics.AuthFlowsFailed.WithLabelValues("state_mismatch").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or expired OAuth state"})
			return
		}
		if payload.Provider != provider {
			metrics.AuthFlowsFailed.WithLabelValues("state_mismatch").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "state issued for a different provider"})
			return
		}

		// Single-use: the nonce row is atomically deleted here. A replayed
		// callback fails before reaching the provider.
		st, err := store.ConsumeState(payload.Nonce)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "state lookup failed"})
			return
		}
		if st == nil {
			metrics.AuthFlowsFailed.WithLabelValues("state_mismatch").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "oauth state already used or expired"})
			return
		}

		c.SetCookie(stateCookie, "", -1, "/", "", false, true)

		ctx, cancel := context.WithTimeout(c.Request.Context(), exchangeTimeout)
		defer cancel()

		token, err := reg.Exchange(ctx, provider, payload.Service, code)
		if err != nil {
			logx.Errorf("code exchange failed: provider=%s service=%s err=%v", provider, payload.Service, err)
			metrics.AuthFlowsFailed.WithLabelValues("exchange_failed").Inc()
			c.Redirect(http.StatusFound, uiRedirect(uiOrigin, payload.ComponentID, "error", "exchange_failed"))
			return
		}

		if sink != nil {
			sink.Add(token.AccessToken, token.RefreshToken)
		}

		scope := grantedScope(token.Extra("scope"))
		if scope == "" {
			if scopes, err := oauth.Scopes(provider, payload.Service); err == nil {
				scope = strings.Join(scopes, " ")
			}
		}

		expiresAt := token.Expiry
		if expiresAt.IsZero() {
			expiresAt = time.Now().Add(time.Hour)
		}

		encAccess, err := crypto.EncryptAtRest(masterKey, []byte(token.AccessToken))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "encryption failed"})
			return
		}
		var encRefresh []byte
		if token.RefreshToken != "" {
			encRefresh, err = crypto.EncryptAtRest(masterKey, []byte(token.RefreshToken))
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "encryption failed"})
				return
			}
		}

		if provider == oauth.ProviderGoogle {
			if email, err := reg.ResolveGoogleEmail(ctx, token); err != nil {
				logx.Warnf("google userinfo lookup failed: %v", err)
			} else {
				logx.Infof("google account connected: user=%s account=%s service=%s", st.UserID, email, payload.Service)
			}
		}

		rec := &db.TokenRecord{
			UserID:           st.UserID,
			Provider:         string(provider),
			Service:          string(payload.Service),
			AccessEncrypted:  encAccess,
			RefreshEncrypted: encRefresh,
			ExpiresAt:        expiresAt,
			Scope:            scope,
		}
		if err := store.UpsertToken(rec); err != nil {
			logx.Errorf("store token: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store token"})
			return
		}

		metrics.AuthFlowsCompleted.WithLabelValues(string(provider)).Inc()
		c.Redirect(http.StatusFound, uiRedirect(uiOrigin, payload.ComponentID, "connected", string(payload.Service)))
	}
}

// HandleRefresh handles POST /auth/refresh. It renews the stored token for
// the session user and service via the standard refresh grant.
func HandleRefresh(store *db.Store, reg *oauth.Registry, masterKey [32]byte, sink *redact.MaskingWriter) gin.HandlerFunc {
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
			c.JSON(http.StatusNotFound, gin.H{"error": "no token stored for service"})
			return
		}
		if len(rec.RefreshEncrypted) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no refresh token; re-authenticate"})
			return
		}

		refreshToken, err := crypto.DecryptAtRest(masterKey, rec.RefreshEncrypted)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to decrypt refresh token"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), exchangeTimeout)
		defer cancel()

		token, err := reg.Refresh(ctx, oauth.Provider(rec.Provider), oauth.Service(rec.Service), string(refreshToken))
		if err != nil {
			if errors.Is(err, oauth.ErrExchangeFailed) {
				c.JSON(http.StatusBadGateway, gin.H{"error": "refresh grant rejected"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if sink != nil {
			sink.Add(token.AccessToken, token.RefreshToken)
		}

		encAccess, err := crypto.EncryptAtRest(masterKey, []byte(token.AccessToken))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "encryption failed"})
			return
		}
		encRefresh := rec.RefreshEncrypted // providers may omit a new refresh token
		if token.RefreshToken != "" && token.RefreshToken != string(refreshToken) {
			encRefresh, err = crypto.EncryptAtRest(masterKey, []byte(token.RefreshToken))
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "encryption failed"})
				return
			}
		}

		expiresAt := token.Expiry
		if expiresAt.IsZero() {
			expiresAt = time.Now().Add(time.Hour)
		}

		rec.AccessEncrypted = encAccess
		rec.RefreshEncrypted = encRefresh
		rec.ExpiresAt = expiresAt
		if scope := grantedScope(token.Extra("scope")); scope != "" {
			rec.Scope = scope
		}
		if err := store.UpsertToken(rec); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store token"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"refreshed":        true,
			"expiresInSeconds": int(time.Until(expiresAt).Seconds()),
		})
	}
}

// HandleDisconnect handles DELETE /auth/:provider. It removes the stored
// token for the session user, provider and service.
func HandleDisconnect(store *db.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		provider := c.Param("provider")
		service := c.Query("service")
		if service == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "service query parameter is required"})
			return
		}

		deleted, err := store.DeleteToken(UserID(c), provider, service)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete token"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"disconnected": deleted})
	}
}

func uiRedirect(uiOrigin, componentID, key, value string) string {
	q := url.Values{}
	q.Set(key, value)
	if componentID != "" {
		q.Set("component_id", componentID)
	}
	return uiOrigin + "/?" + q.Encode()
}

func grantedScope(v any) string {
	s, _ := v.(string)
	return s
}

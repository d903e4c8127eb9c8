package db

import "time"

// TokenRecord is the stored OAuth token set for one (user, provider, service)
// triple. Token material is encrypted at rest; the raw values never appear in
// API responses.
type TokenRecord struct {
	UserID           string    `json:"user_id"`
	Provider         string    `json:"provider"`
	Service          string    `json:"service"`
	AccessEncrypted  []byte    `json:"-"`
	RefreshEncrypted []byte    `json:"-"`
	ExpiresAt        time.Time `json:"expires_at"`
	Scope            string    `json:"scope"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Expired reports whether the access token lifetime has passed.
func (t *TokenRecord) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}

// AuthState is a pending authorization flow: one row per issued state nonce,
// consumed (deleted) exactly once at callback time.
type AuthState struct {
	Nonce       string    `json:"nonce"`
	UserID      string    `json:"user_id"`
	Provider    string    `json:"provider"`
	Service     string    `json:"service"`
	ComponentID string    `json:"component_id"`
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
}

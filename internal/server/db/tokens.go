package db

import (
	"database/sql"
	"fmt"
)

// UpsertToken inserts or overwrites the token record for its
// (user_id, provider, service) key. The write is a single conditional upsert
// statement, so concurrent writers for the same key cannot interleave.
func (s *Store) UpsertToken(rec *TokenRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO oauth_tokens (user_id, provider, service, access_encrypted, refresh_encrypted, expires_at, scope)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, provider, service) DO UPDATE SET
		   access_encrypted = excluded.access_encrypted,
		   refresh_encrypted = excluded.refresh_encrypted,
		   expires_at = excluded.expires_at,
		   scope = excluded.scope,
		   updated_at = CURRENT_TIMESTAMP`,
		rec.UserID, rec.Provider, rec.Service,
		rec.AccessEncrypted, rec.RefreshEncrypted, rec.ExpiresAt, rec.Scope,
	)
	if err != nil {
		return fmt.Errorf("upsert token: %w", err)
	}
	return nil
}

// GetToken retrieves the token record for a (user_id, provider, service)
// triple, or nil when none exists.
func (s *Store) GetToken(userID, provider, service string) (*TokenRecord, error) {
	rec := &TokenRecord{}
	err := s.db.QueryRow(
		`SELECT user_id, provider, service, access_encrypted, refresh_encrypted, expires_at, scope, created_at, updated_at
		 FROM oauth_tokens WHERE user_id = ? AND provider = ? AND service = ?`,
		userID, provider, service,
	).Scan(&rec.UserID, &rec.Provider, &rec.Service, &rec.AccessEncrypted,
		&rec.RefreshEncrypted, &rec.ExpiresAt, &rec.Scope, &rec.CreatedAt, &rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}
	return rec, nil
}

// GetTokenByService retrieves the most recently updated token record for a
// (user_id, service) pair across providers, or nil when none exists.
func (s *Store) GetTokenByService(userID, service string) (*TokenRecord, error) {
	rec := &TokenRecord{}
	err := s.db.QueryRow(
		`SELECT user_id, provider, service, access_encrypted, refresh_encrypted, expires_at, scope, created_at, updated_at
		 FROM oauth_tokens WHERE user_id = ? AND service = ?
		 ORDER BY updated_at DESC LIMIT 1`,
		userID, service,
	).Scan(&rec.UserID, &rec.Provider, &rec.Service, &rec.AccessEncrypted,
		&rec.RefreshEncrypted, &rec.ExpiresAt, &rec.Scope, &rec.CreatedAt, &rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get token by service: %w", err)
	}
	return rec, nil
}

// DeleteToken removes the token record for a triple. Returns whether a row
// was deleted.
func (s *Store) DeleteToken(userID, provider, service string) (bool, error) {
	res, err := s.db.Exec(
		`DELETE FROM oauth_tokens WHERE user_id = ? AND provider = ? AND service = ?`,
		userID, provider, service,
	)
	if err != nil {
		return false, fmt.Errorf("delete token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete token: %w", err)
	}
	return n > 0, nil
}

package db

import (
	"database/sql"
	"fmt"
	"time"
)

// PutState records a freshly issued authorization state nonce.
func (s *Store) PutState(st *AuthState) error {
	_, err := s.db.Exec(
		`INSERT INTO oauth_states (nonce, user_id, provider, service, component_id, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		st.Nonce, st.UserID, st.Provider, st.Service, st.ComponentID, st.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("put state: %w", err)
	}
	return nil
}

// ConsumeState atomically removes and returns the state row for a nonce.
// Returns nil when the nonce is unknown, already consumed, or expired: the
// delete-and-return makes each nonce usable exactly once even under
// concurrent callbacks.
func (s *Store) ConsumeState(nonce string) (*AuthState, error) {
	st := &AuthState{}
	err := s.db.QueryRow(
		`DELETE FROM oauth_states WHERE nonce = ?
		 RETURNING nonce, user_id, provider, service, component_id, expires_at, created_at`,
		nonce,
	).Scan(&st.Nonce, &st.UserID, &st.Provider, &st.Service, &st.ComponentID, &st.ExpiresAt, &st.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("consume state: %w", err)
	}
	if !st.ExpiresAt.After(time.Now()) {
		return nil, nil
	}
	return st, nil
}

// PurgeExpiredStates removes abandoned flow rows. Called opportunistically at
// flow initiation; there is no background sweeper.
func (s *Store) PurgeExpiredStates(now time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM oauth_states WHERE expires_at <= ?`, now)
	if err != nil {
		return 0, fmt.Errorf("purge states: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge states: %w", err)
	}
	return n, nil
}

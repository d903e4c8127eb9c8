package oauth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// StateMaxAge bounds how long an issued authorization state stays valid.
const StateMaxAge = 10 * time.Minute

// ErrStateMismatch is returned when the state echoed by the provider fails
// validation: bad signature, expired, already consumed, or not the value the
// flow was initiated with.
var ErrStateMismatch = errors.New("oauth state mismatch")

// StatePayload is the data bound into an anti-forgery state value.
type StatePayload struct {
	UserID      string   `json:"uid"`
	Provider    Provider `json:"prv"`
	Service     Service  `json:"svc"`
	ComponentID string   `json:"cid"`
	Nonce       string   `json:"non"`
	IssuedAt    int64    `json:"iat"`
}

// NewNonce returns 16 bytes from crypto/rand, hex-encoded.
func NewNonce() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}

// MakeState produces an HMAC-signed state: "payload_b64.hmac_hex".
// The payload binds the user, provider, service and UI component to the flow;
// the embedded nonce makes the value single-use (the callback consumes the
// matching row in the state table).
func MakeState(p StatePayload, key [32]byte) (string, error) {
	if p.IssuedAt == 0 {
		p.IssuedAt = time.Now().Unix()
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal state: %w", err)
	}
	encoded := base64.RawURLEncoding.EncodeToString(raw)
	mac := hmac.New(sha256.New, key[:])
	mac.Write([]byte(encoded))
	return encoded + "." + hex.EncodeToString(mac.Sum(nil)), nil
}

// VerifyState verifies and parses an HMAC-signed state value.
func VerifyState(state string, key [32]byte) (StatePayload, error) {
	var p StatePayload

	encoded, sigHex, ok := strings.Cut(state, ".")
	if !ok {
		return p, fmt.Errorf("%w: malformed state", ErrStateMismatch)
	}

	mac := hmac.New(sha256.New, key[:])
	mac.Write([]byte(encoded))
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(sigHex), []byte(expected)) {
		return p, fmt.Errorf("%w: invalid signature", ErrStateMismatch)
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return p, fmt.Errorf("%w: invalid payload encoding", ErrStateMismatch)
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("%w: invalid payload", ErrStateMismatch)
	}

	if time.Since(time.Unix(p.IssuedAt, 0)) > StateMaxAge {
		return p, fmt.Errorf("%w: state expired", ErrStateMismatch)
	}

	return p, nil
}

// Package session implements the signed bearer tokens the dashboard frontend
// presents on API calls. A token is self-contained: it carries the user
// identity and expiry, signed with the server session secret, so handlers can
// be exercised without an HTTP session store.
package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultTTL is how long a minted session token stays valid.
const DefaultTTL = 24 * time.Hour

var ErrInvalidSession = errors.New("invalid session token")

// Mint produces a signed session token: "user_b64:expiry_hex:hmac_hex".
func Mint(secret []byte, userID string, ttl time.Duration) string {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	user := base64.RawURLEncoding.EncodeToString([]byte(userID))
	exp := strconv.FormatInt(time.Now().Add(ttl).Unix(), 16)
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(user + ":" + exp))
	return user + ":" + exp + ":" + hex.EncodeToString(mac.Sum(nil))
}

// Verify validates a session token and returns the user identity.
func Verify(secret []byte, token string) (string, error) {
	parts := strings.SplitN(token, ":", 3)
	if len(parts) != 3 {
		return "", fmt.Errorf("%w: malformed", ErrInvalidSession)
	}
	user, expHex, sigHex := parts[0], parts[1], parts[2]

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(user + ":" + expHex))
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(sigHex), []byte(expected)) {
		return "", fmt.Errorf("%w: bad signature", ErrInvalidSession)
	}

	exp, err := strconv.ParseInt(expHex, 16, 64)
	if err != nil {
		return "", fmt.Errorf("%w: bad expiry", ErrInvalidSession)
	}
	if time.Now().After(time.Unix(exp, 0)) {
		return "", fmt.Errorf("%w: expired", ErrInvalidSession)
	}

	raw, err := base64.RawURLEncoding.DecodeString(user)
	if err != nil {
		return "", fmt.Errorf("%w: bad user encoding", ErrInvalidSession)
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("%w: empty user", ErrInvalidSession)
	}
	return string(raw), nil
}

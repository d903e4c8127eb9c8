package server

import (
	"fmt"
	"os"
	"strings"

	"github.com/lumora-ai/botgate/internal/crypto"
	"github.com/lumora-ai/botgate/internal/oauth"
)

// Config holds server configuration loaded from environment variables.
// It is built once at process start and passed explicitly to handlers;
// there is no ambient global lookup.
type Config struct {
	ListenAddr    string
	DBPath        string
	BaseURL       string
	UIOrigin      string
	MasterKey     [32]byte
	SessionSecret []byte
	CORSOrigins   []string
	Providers     map[oauth.Provider]oauth.Credential
}

// LoadConfig loads server configuration from environment variables.
func LoadConfig() (*Config, error) {
	masterHex := os.Getenv("BOTGATE_MASTER_KEY")
	if masterHex == "" {
		return nil, fmt.Errorf("BOTGATE_MASTER_KEY is required")
	}
	masterKey, err := crypto.ParseMasterKey(masterHex)
	if err != nil {
		return nil, fmt.Errorf("BOTGATE_MASTER_KEY: %w", err)
	}

	sessionSecret := os.Getenv("BOTGATE_SESSION_SECRET")
	if sessionSecret == "" {
		return nil, fmt.Errorf("BOTGATE_SESSION_SECRET is required")
	}
	if len(sessionSecret) < 16 {
		return nil, fmt.Errorf("BOTGATE_SESSION_SECRET must be at least 16 characters")
	}

	dbPath := os.Getenv("BOTGATE_DB_PATH")
	if dbPath == "" {
		dbPath = "botgate.db"
	}

	listenAddr := os.Getenv("BOTGATE_LISTEN_ADDR")
	if listenAddr == "" {
		listenAddr = ":8080"
	}

	baseURL := strings.TrimRight(os.Getenv("BOTGATE_BASE_URL"), "/")
	if baseURL == "" {
		baseURL = "http://localhost" + listenAddr
	}

	uiOrigin := strings.TrimRight(os.Getenv("BOTGATE_UI_ORIGIN"), "/")
	if uiOrigin == "" {
		uiOrigin = baseURL
	}

	var corsOrigins []string
	if v := os.Getenv("BOTGATE_CORS_ORIGINS"); v != "" {
		for _, o := range strings.Split(v, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				corsOrigins = append(corsOrigins, o)
			}
		}
	}

	providers := make(map[oauth.Provider]oauth.Credential)
	for _, p := range []oauth.Provider{oauth.ProviderGoogle, oauth.ProviderMicrosoft, oauth.ProviderZoom} {
		prefix := "BOTGATE_" + strings.ToUpper(string(p))
		id := os.Getenv(prefix + "_CLIENT_ID")
		secret := os.Getenv(prefix + "_CLIENT_SECRET")
		if id == "" && secret == "" {
			continue
		}
		if id == "" || secret == "" {
			return nil, fmt.Errorf("%s_CLIENT_ID and %s_CLIENT_SECRET must both be set", prefix, prefix)
		}
		providers[p] = oauth.Credential{ClientID: id, ClientSecret: secret}
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("no OAuth providers configured (set BOTGATE_GOOGLE_CLIENT_ID/_SECRET etc.)")
	}

	return &Config{
		ListenAddr:    listenAddr,
		DBPath:        dbPath,
		BaseURL:       baseURL,
		UIOrigin:      uiOrigin,
		MasterKey:     masterKey,
		SessionSecret: []byte(sessionSecret),
		CORSOrigins:   corsOrigins,
		Providers:     providers,
	}, nil
}

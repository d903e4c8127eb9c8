package oauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/microsoft"
)

// Provider identifies a third-party OAuth provider.
type Provider string

const (
	ProviderGoogle    Provider = "google"
	ProviderMicrosoft Provider = "microsoft"
	ProviderZoom      Provider = "zoom"
)

// Service identifies the capability a connection grants access to.
type Service string

const (
	ServiceGmail    Service = "gmail"
	ServiceCalendar Service = "calendar"
	ServiceDrive    Service = "drive"
	ServiceMeeting  Service = "meeting"
)

var (
	// ErrUnsupportedProvider is returned when a provider/service pair is not
	// in the static scope table.
	ErrUnsupportedProvider = errors.New("unsupported provider/service")
	// ErrExchangeFailed is returned when the provider token endpoint rejects
	// a code exchange or refresh grant.
	ErrExchangeFailed = errors.New("token exchange failed")
)

// scopeTable is the static provider×service scope table. The authorization
// URL for a pair carries exactly these scopes.
var scopeTable = map[Provider]map[Service][]string{
	ProviderGoogle: {
		ServiceGmail: {
			"https://www.googleapis.com/auth/gmail.readonly",
			"https://www.googleapis.com/auth/gmail.send",
		},
		ServiceCalendar: {
			"https://www.googleapis.com/auth/calendar",
		},
		ServiceDrive: {
			"https://www.googleapis.com/auth/drive.file",
		},
	},
	ProviderMicrosoft: {
		ServiceCalendar: {
			"offline_access",
			"https://graph.microsoft.com/Calendars.ReadWrite",
		},
	},
	ProviderZoom: {
		ServiceMeeting: {
			"meeting:read",
			"meeting:write",
		},
	},
}

// zoomEndpoint is not shipped with golang.org/x/oauth2.
var zoomEndpoint = oauth2.Endpoint{
	AuthURL:  "https://zoom.us/oauth/authorize",
	TokenURL: "https://zoom.us/oauth/token",
}

// Credential holds the client credentials registered with one provider.
// Endpoint may be left zero to use the provider's well-known endpoint;
// tests point it at a synthetic server.
type Credential struct {
	ClientID     string
	ClientSecret string
	Endpoint     oauth2.Endpoint
}

// Registry is the immutable provider configuration, constructed once at
// process start and passed explicitly to each handler.
type Registry struct {
	creds        map[Provider]Credential
	baseURL      string
	userinfoBase string
}

// Option customizes a Registry.
type Option func(*Registry)

// WithUserinfoEndpoint overrides the Google userinfo API base URL. Tests
// point it at a synthetic server.
func WithUserinfoEndpoint(base string) Option {
	return func(r *Registry) { r.userinfoBase = base }
}

// NewRegistry builds a Registry. baseURL is the public server origin used to
// derive per-provider redirect URIs.
func NewRegistry(baseURL string, creds map[Provider]Credential, opts ...Option) *Registry {
	resolved := make(map[Provider]Credential, len(creds))
	for p, c := range creds {
		if c.Endpoint.AuthURL == "" && c.Endpoint.TokenURL == "" {
			switch p {
			case ProviderGoogle:
				c.Endpoint = google.Endpoint
			case ProviderMicrosoft:
				c.Endpoint = microsoft.AzureADEndpoint("common")
			case ProviderZoom:
				c.Endpoint = zoomEndpoint
			}
		}
		resolved[p] = c
	}
	r := &Registry{creds: resolved, baseURL: baseURL}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Scopes returns the static scope list for a provider/service pair.
func Scopes(provider Provider, service Service) ([]string, error) {
	services, ok := scopeTable[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, provider)
	}
	scopes, ok := services[service]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnsupportedProvider, provider, service)
	}
	return scopes, nil
}

// Supported reports whether the provider/service pair is in the scope table.
func Supported(provider Provider, service Service) bool {
	_, err := Scopes(provider, service)
	return err == nil
}

// RedirectURL returns the registered callback URI for a provider.
func (r *Registry) RedirectURL(provider Provider) string {
	return r.baseURL + "/auth/" + string(provider) + "/callback"
}

// Config assembles the oauth2 client configuration for a provider/service
// pair. Fails with ErrUnsupportedProvider when the pair is not in the scope
// table or no client credentials are configured for the provider.
func (r *Registry) Config(provider Provider, service Service) (*oauth2.Config, error) {
	scopes, err := Scopes(provider, service)
	if err != nil {
		return nil, err
	}
	cred, ok := r.creds[provider]
	if !ok {
		return nil, fmt.Errorf("%w: no client credentials for %s", ErrUnsupportedProvider, provider)
	}
	return &oauth2.Config{
		ClientID:     cred.ClientID,
		ClientSecret: cred.ClientSecret,
		Endpoint:     cred.Endpoint,
		RedirectURL:  r.RedirectURL(provider),
		Scopes:       scopes,
	}, nil
}

// AuthCodeURL builds the provider authorization URL carrying the given state.
func (r *Registry) AuthCodeURL(provider Provider, service Service, state string) (string, error) {
	cfg, err := r.Config(provider, service)
	if err != nil {
		return "", err
	}
	return cfg.AuthCodeURL(state, oauth2.AccessTypeOffline), nil
}

// Exchange trades an authorization code for tokens at the provider token
// endpoint. The call is bounded by the context deadline.
func (r *Registry) Exchange(ctx context.Context, provider Provider, service Service, code string) (*oauth2.Token, error) {
	cfg, err := r.Config(provider, service)
	if err != nil {
		return nil, err
	}
	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	return token, nil
}

// Refresh performs a refresh grant for a previously stored refresh token and
// returns the renewed token set.
func (r *Registry) Refresh(ctx context.Context, provider Provider, service Service, refreshToken string) (*oauth2.Token, error) {
	cfg, err := r.Config(provider, service)
	if err != nil {
		return nil, err
	}
	src := cfg.TokenSource(ctx, &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Now().Add(-time.Minute),
	})
	token, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	return token, nil
}

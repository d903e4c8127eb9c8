package oauth

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewRegistry("https://gate.example.com", map[Provider]Credential{
		ProviderGoogle:    {ClientID: "g-id", ClientSecret: "g-secret"},
		ProviderMicrosoft: {ClientID: "m-id", ClientSecret: "m-secret"},
		ProviderZoom:      {ClientID: "z-id", ClientSecret: "z-secret"},
	})
}

// Every supported pair produces an authorization URL carrying exactly the
// scopes declared in the static table, no more, no fewer.
func TestAuthCodeURL_ScopesExact(t *testing.T) {
	reg := testRegistry(t)

	for provider, services := range scopeTable {
		for service, want := range services {
			authURL, err := reg.AuthCodeURL(provider, service, "state123")
			require.NoError(t, err, "%s/%s", provider, service)

			u, err := url.Parse(authURL)
			require.NoError(t, err)

			q := u.Query()
			require.Equal(t, "code", q.Get("response_type"))
			require.Equal(t, "state123", q.Get("state"))
			require.Equal(t, reg.RedirectURL(provider), q.Get("redirect_uri"))

			got := q.Get("scope")
			joined := ""
			for i, s := range want {
				if i > 0 {
					joined += " "
				}
				joined += s
			}
			require.Equal(t, joined, got, "%s/%s scope set", provider, service)
		}
	}
}

func TestConfig_UnsupportedPairs(t *testing.T) {
	reg := testRegistry(t)

	cases := []struct {
		provider Provider
		service  Service
	}{
		{ProviderGoogle, ServiceMeeting},
		{ProviderMicrosoft, ServiceGmail},
		{ProviderZoom, ServiceCalendar},
		{Provider("slack"), ServiceGmail},
		{ProviderGoogle, Service("contacts")},
	}
	for _, c := range cases {
		_, err := reg.Config(c.provider, c.service)
		require.ErrorIs(t, err, ErrUnsupportedProvider, "%s/%s", c.provider, c.service)
	}
}

func TestConfig_MissingCredentials(t *testing.T) {
	reg := NewRegistry("https://gate.example.com", map[Provider]Credential{
		ProviderGoogle: {ClientID: "g-id", ClientSecret: "g-secret"},
	})
	_, err := reg.Config(ProviderZoom, ServiceMeeting)
	require.ErrorIs(t, err, ErrUnsupportedProvider)
}

func TestRedirectURL(t *testing.T) {
	reg := testRegistry(t)
	require.Equal(t, "https://gate.example.com/auth/google/callback", reg.RedirectURL(ProviderGoogle))
	require.Equal(t, "https://gate.example.com/auth/zoom/callback", reg.RedirectURL(ProviderZoom))
}

func TestDefaultEndpoints(t *testing.T) {
	reg := testRegistry(t)

	cfg, err := reg.Config(ProviderZoom, ServiceMeeting)
	require.NoError(t, err)
	require.Equal(t, "https://zoom.us/oauth/authorize", cfg.Endpoint.AuthURL)
	require.Equal(t, "https://zoom.us/oauth/token", cfg.Endpoint.TokenURL)

	cfg, err = reg.Config(ProviderGoogle, ServiceCalendar)
	require.NoError(t, err)
	require.NotEmpty(t, cfg.Endpoint.AuthURL)
}

func TestSupported(t *testing.T) {
	require.True(t, Supported(ProviderGoogle, ServiceGmail))
	require.True(t, Supported(ProviderZoom, ServiceMeeting))
	require.False(t, Supported(ProviderZoom, ServiceGmail))
}

func TestScopes_Errors(t *testing.T) {
	_, err := Scopes(Provider("nope"), ServiceGmail)
	if !errors.Is(err, ErrUnsupportedProvider) {
		t.Fatalf("expected ErrUnsupportedProvider, got %v", err)
	}
}

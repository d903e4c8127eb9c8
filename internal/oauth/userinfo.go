package oauth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	goauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// ResolveGoogleEmail resolves the Google account email behind a freshly
// exchanged token. Used to log which account a connection was made with;
// callers treat failures as non-fatal.
func (r *Registry) ResolveGoogleEmail(ctx context.Context, token *oauth2.Token) (string, error) {
	cred, ok := r.creds[ProviderGoogle]
	if !ok {
		return "", fmt.Errorf("%w: no client credentials for google", ErrUnsupportedProvider)
	}
	cfg := &oauth2.Config{
		ClientID:     cred.ClientID,
		ClientSecret: cred.ClientSecret,
		Endpoint:     cred.Endpoint,
	}

	opts := []option.ClientOption{option.WithHTTPClient(cfg.Client(ctx, token))}
	if r.userinfoBase != "" {
		opts = append(opts, option.WithEndpoint(r.userinfoBase))
	}

	svc, err := goauth2.NewService(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("create oauth2 service: %w", err)
	}

	userinfo, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("get user info: %w", err)
	}
	if userinfo.Email == "" {
		return "", fmt.Errorf("no email in user info")
	}
	return userinfo.Email, nil
}

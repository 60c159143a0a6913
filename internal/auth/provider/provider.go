package provider

import (
	"context"

	"dashboard-auth/internal/auth"
)

// TokenVerifier validates a provider-issued identity token and returns
// the identity it asserts. Implementations make no account or session
// decisions.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (*auth.Identity, error)
}

// OAuthProvider is a TokenVerifier that can also drive the browser
// redirect flow to obtain its identity token.
type OAuthProvider interface {
	TokenVerifier

	// Name returns the provider identifier (e.g. "google").
	Name() string

	// AuthCodeURL returns the OAuth authorization URL.
	// State and PKCE parameters are provided by the caller.
	AuthCodeURL(state string, codeChallenge string) string

	// ExchangeCode exchanges the authorization code and returns the raw
	// identity token, unverified.
	ExchangeCode(ctx context.Context, code string, codeVerifier string) (string, error)
}

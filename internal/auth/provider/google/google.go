package google

import (
	"context"
	"errors"
	"fmt"

	"dashboard-auth/internal/apperr"
	"dashboard-auth/internal/auth"
	"dashboard-auth/internal/auth/provider"
	"dashboard-auth/internal/logger"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

const (
	providerName = "google"
	issuerURL    = "https://accounts.google.com"
)

// Config describes the Google client this service is registered as.
type Config struct {
	ClientID       string
	ClientSecret   string // only needed for the redirect flow
	RedirectURL    string // only needed for the redirect flow
	AllowedDomains []string
}

type Provider struct {
	oauthConfig    *oauth2.Config
	verifier       *oidc.IDTokenVerifier
	allowedDomains []string
}

// New discovers Google's OIDC configuration and builds a provider whose
// verifier checks signatures against Google's published keys (fetched and
// cached by go-oidc) and the audience against cfg.ClientID. Failing to
// fetch those keys is reported as apperr.ErrInternal rather than as an
// invalid token.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("google client id is required")
	}

	oidcProvider, err := oidc.NewProvider(oidc.ClientContext(ctx, newKeyFetchClient(nil)), issuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to init google oidc provider: %w", err)
	}

	var meta struct {
		JWKSURL string `json:"jwks_uri"`
	}
	if err := oidcProvider.Claims(&meta); err != nil || meta.JWKSURL == "" {
		return nil, fmt.Errorf("google discovery document has no jwks_uri: %v", err)
	}

	verifier := newVerifier(newRemoteKeySet(ctx, meta.JWKSURL, nil), cfg.ClientID, nil)

	return NewWithVerifier(verifier, oidcProvider.Endpoint(), cfg), nil
}

// NewWithVerifier builds a provider around an already constructed
// verifier, e.g. one backed by a static key set.
func NewWithVerifier(verifier *oidc.IDTokenVerifier, endpoint oauth2.Endpoint, cfg Config) *Provider {
	return &Provider{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes: []string{
				oidc.ScopeOpenID,
				"profile",
				"email",
			},
		},
		verifier:       verifier,
		allowedDomains: cfg.AllowedDomains,
	}
}

// Name returns the provider identifier used by the registry.
func (p *Provider) Name() string {
	return providerName
}

// Verify checks signature, audience and expiry of a Google ID token and
// returns the identity it asserts. Every verification failure, including
// a payload without email, is reported as apperr.ErrInvalidToken; an
// unreachable key endpoint is apperr.ErrInternal.
func (p *Provider) Verify(ctx context.Context, rawToken string) (*auth.Identity, error) {
	if rawToken == "" {
		return nil, apperr.Wrap(errors.New("empty id token"), apperr.ErrBadRequest)
	}

	report := &verifyReport{}
	idToken, err := p.verifier.Verify(context.WithValue(ctx, verifyReportKey{}, report), rawToken)
	if err != nil {
		if report.keysErr != nil {
			return nil, apperr.Wrap(report.keysErr, apperr.ErrInternal)
		}
		return nil, apperr.Wrap(fmt.Errorf("google id_token verification failed: %w", err), apperr.ErrInvalidToken)
	}

	var claims struct {
		Subject       string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified *bool  `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}

	if err := idToken.Claims(&claims); err != nil {
		return nil, apperr.Wrap(fmt.Errorf("google id_token claims parse failed: %w", err), apperr.ErrInvalidToken)
	}

	if claims.Email == "" {
		return nil, apperr.Wrap(errors.New("google id_token missing email"), apperr.ErrInvalidToken)
	}

	if claims.EmailVerified != nil && !*claims.EmailVerified {
		return nil, apperr.Wrap(errors.New("google email not verified"), apperr.ErrInvalidToken)
	}

	if err := provider.ValidateDomain(claims.Email, p.allowedDomains); err != nil {
		return nil, apperr.Wrap(err, apperr.ErrInvalidToken)
	}

	logger.Debug("google oidc verified", map[string]any{
		"issuer":      idToken.Issuer,
		"audience":    idToken.Audience,
		"expiry_unix": idToken.Expiry.Unix(),
	})

	return &auth.Identity{
		Provider:      providerName,
		Subject:       claims.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified != nil && *claims.EmailVerified,
		Name:          claims.Name,
		Picture:       claims.Picture,
	}, nil
}

// AuthCodeURL builds the OAuth authorization URL with PKCE parameters.
func (p *Provider) AuthCodeURL(state string, codeChallenge string) string {
	return p.oauthConfig.AuthCodeURL(
		state,
		oauth2.AccessTypeOnline,
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}

// ExchangeCode trades the authorization code for tokens and returns the
// raw id_token. Verification is left to Verify.
func (p *Provider) ExchangeCode(
	ctx context.Context,
	code string,
	codeVerifier string,
) (string, error) {

	token, err := p.oauthConfig.Exchange(
		ctx,
		code,
		oauth2.SetAuthURLParam("code_verifier", codeVerifier),
	)
	if err != nil {
		return "", fmt.Errorf("google token exchange failed: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return "", errors.New("google did not return id_token")
	}

	return rawIDToken, nil
}

var _ provider.OAuthProvider = (*Provider)(nil)

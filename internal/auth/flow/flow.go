// Package flow runs the login pipeline: verify the identity token, find or
// create the account, then mint the session credential. Stages run in
// order and the first failure aborts the flow, so no credential is ever
// issued for a request that failed an earlier stage.
package flow

import (
	"context"
	"errors"
	"time"

	"dashboard-auth/internal/apperr"
	"dashboard-auth/internal/auth/provider"
	"dashboard-auth/internal/auth/resolver"
	"dashboard-auth/internal/logger"
	"dashboard-auth/internal/metrics"
	"dashboard-auth/internal/session"
)

type Flow struct {
	verifier provider.TokenVerifier
	resolver resolver.Resolver
	issuer   *session.Issuer
	metrics  *metrics.Metrics
}

func New(
	verifier provider.TokenVerifier,
	resolver resolver.Resolver,
	issuer *session.Issuer,
	m *metrics.Metrics,
) *Flow {
	return &Flow{
		verifier: verifier,
		resolver: resolver,
		issuer:   issuer,
		metrics:  m,
	}
}

// Login turns a raw identity token into a session credential. Errors are
// *apperr.Error values describing which stage failed.
func (f *Flow) Login(ctx context.Context, rawToken string) (cred session.Credential, err error) {
	start := time.Now()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = apperr.Code(err)
		}
		f.metrics.ObserveLogin(outcome, time.Since(start))
	}()

	if rawToken == "" {
		return session.Credential{}, apperr.Wrap(errors.New("token missing from request"), apperr.ErrBadRequest)
	}

	// 1. Verify
	identity, err := f.verifier.Verify(ctx, rawToken)
	if err != nil {
		if _, ok := apperr.As(err); !ok {
			err = apperr.Wrap(err, apperr.ErrInvalidToken)
		}
		return session.Credential{}, err
	}

	// 2. Provision
	acc, err := f.resolver.Resolve(ctx, identity)
	if err != nil {
		if _, ok := apperr.As(err); !ok {
			err = apperr.Wrap(err, apperr.ErrInternal)
		}
		return session.Credential{}, err
	}

	// 3. Issue
	cred, err = f.issuer.Issue(acc, identity.Picture)
	if err != nil {
		return session.Credential{}, err
	}

	logger.Info("login succeeded", map[string]any{
		"account_id": acc.ID,
		"role":       acc.Role,
		"provider":   identity.Provider,
		"expires_at": cred.ExpiresAt.Unix(),
	})

	return cred, nil
}

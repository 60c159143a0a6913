package flow

import (
	"context"
	"errors"
	"testing"
	"time"

	"dashboard-auth/internal/account"
	"dashboard-auth/internal/apperr"
	"dashboard-auth/internal/auth"
	"dashboard-auth/internal/auth/resolver"
	"dashboard-auth/internal/metrics"
	"dashboard-auth/internal/session"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goodToken = "good-token"

type fakeVerifier struct {
	identity *auth.Identity
	err      error
	calls    int
}

func (f *fakeVerifier) Verify(_ context.Context, raw string) (*auth.Identity, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if raw != goodToken {
		return nil, apperr.Wrap(errors.New("signature mismatch"), apperr.ErrInvalidToken)
	}
	id := *f.identity
	return &id, nil
}

type failingResolver struct{ err error }

func (r failingResolver) Resolve(context.Context, *auth.Identity) (*account.Account, error) {
	return nil, r.err
}

type fixture struct {
	flow     *Flow
	verifier *fakeVerifier
	store    *account.MemoryStore
	metrics  *metrics.Metrics
	logins   *prometheus.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	verifier := &fakeVerifier{identity: &auth.Identity{
		Provider: "google",
		Subject:  "sub-1",
		Email:    "new@x.com",
		Name:     "New User",
		Picture:  "https://example.com/p.png",
	}}
	store := account.NewMemoryStore()
	issuer, err := session.NewIssuer(session.IssuerConfig{
		Secret: []byte("0123456789abcdef0123456789abcdef"),
	})
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	return &fixture{
		flow:     New(verifier, resolver.NewDirectory(store), issuer, m),
		verifier: verifier,
		store:    store,
		metrics:  m,
		logins:   reg,
	}
}

func TestLogin_NewUser(t *testing.T) {
	fx := newFixture(t)

	cred, err := fx.flow.Login(context.Background(), goodToken)
	require.NoError(t, err)

	assert.NotEmpty(t, cred.Token)
	assert.Equal(t, "new@x.com", cred.Claims.Email)
	assert.Equal(t, "New User", cred.Claims.Name)
	assert.Equal(t, "annotator", cred.Claims.Role)
	assert.Equal(t, "https://example.com/p.png", cred.Claims.Picture)
	assert.WithinDuration(t, time.Now().Add(session.DefaultTTL), cred.ExpiresAt, 5*time.Second)
	assert.Equal(t, 1, fx.store.Len())

	acc, err := fx.store.FindByEmail(context.Background(), "new@x.com")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, cred.Claims.ID)
	assert.False(t, acc.HasLocalPassword)
}

func TestLogin_ExistingUserKeepsRole(t *testing.T) {
	fx := newFixture(t)
	existing := &account.Account{
		Email: "new@x.com",
		Name:  "Original Name",
		Role:  account.RoleProjectManager,
	}
	require.NoError(t, fx.store.Insert(context.Background(), existing))

	cred, err := fx.flow.Login(context.Background(), goodToken)
	require.NoError(t, err)

	assert.Equal(t, existing.ID, cred.Claims.ID)
	assert.Equal(t, "project manager", cred.Claims.Role)
	assert.Equal(t, "Original Name", cred.Claims.Name)
	assert.Equal(t, 1, fx.store.Len())
}

func TestLogin_RepeatLoginSameAccount(t *testing.T) {
	fx := newFixture(t)

	first, err := fx.flow.Login(context.Background(), goodToken)
	require.NoError(t, err)
	second, err := fx.flow.Login(context.Background(), goodToken)
	require.NoError(t, err)

	assert.Equal(t, first.Claims.ID, second.Claims.ID)
	assert.Equal(t, 1, fx.store.Len())
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		setup    func(fx *fixture)
		want     *apperr.Error
		verified bool
	}{
		{
			name:  "missing token",
			token: "",
			want:  apperr.ErrBadRequest,
		},
		{
			name:     "invalid token",
			token:    "tampered",
			want:     apperr.ErrInvalidToken,
			verified: true,
		},
		{
			name:  "verifier returns plain error",
			token: goodToken,
			setup: func(fx *fixture) {
				fx.verifier.err = errors.New("keys unreachable")
			},
			want:     apperr.ErrInvalidToken,
			verified: true,
		},
		{
			name:  "store unavailable",
			token: goodToken,
			setup: func(fx *fixture) {
				fx.flow.resolver = failingResolver{err: apperr.Wrap(errors.New("db down"), apperr.ErrStoreUnavailable)}
			},
			want:     apperr.ErrStoreUnavailable,
			verified: true,
		},
		{
			name:  "resolver returns plain error",
			token: goodToken,
			setup: func(fx *fixture) {
				fx.flow.resolver = failingResolver{err: errors.New("boom")}
			},
			want:     apperr.ErrInternal,
			verified: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t)
			if tt.setup != nil {
				tt.setup(fx)
			}

			cred, err := fx.flow.Login(context.Background(), tt.token)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, cred.Token)
			assert.Equal(t, 0, fx.store.Len())
			assert.Equal(t, tt.verified, fx.verifier.calls > 0)
		})
	}
}

func TestLogin_RecordsMetrics(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.flow.Login(context.Background(), goodToken)
	require.NoError(t, err)
	_, err = fx.flow.Login(context.Background(), "tampered")
	require.Error(t, err)
	_, err = fx.flow.Login(context.Background(), "")
	require.Error(t, err)

	// one series per outcome: success, invalid_token, bad_request
	n, err := testutil.GatherAndCount(fx.logins, "auth_logins_total")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestLogin_NilMetrics(t *testing.T) {
	fx := newFixture(t)
	fx.flow.metrics = nil

	_, err := fx.flow.Login(context.Background(), goodToken)
	assert.NoError(t, err)
}

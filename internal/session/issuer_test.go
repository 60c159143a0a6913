package session

import (
	"strings"
	"testing"
	"time"

	"dashboard-auth/internal/account"
	"dashboard-auth/internal/apperr"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func testAccount() *account.Account {
	return &account.Account{
		ID:    "3f1c2a9e-6a53-4c55-9d57-0c3a2b7e1d10",
		Email: "new@x.com",
		Name:  "New User",
		Role:  account.RoleAnnotator,
	}
}

func newTestIssuer(t *testing.T, now time.Time) *Issuer {
	t.Helper()
	iss, err := NewIssuer(IssuerConfig{
		Secret: testSecret,
		Issuer: "dashboard-auth",
		Now:    func() time.Time { return now },
	})
	require.NoError(t, err)
	return iss
}

func TestNewIssuer_RequiresSecret(t *testing.T) {
	_, err := NewIssuer(IssuerConfig{})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrConfiguration)
}

func TestNewIssuer_DefaultTTL(t *testing.T) {
	iss, err := NewIssuer(IssuerConfig{Secret: testSecret})
	require.NoError(t, err)
	assert.Equal(t, 30*24*time.Hour, iss.TTL())
}

func TestIssue_Claims(t *testing.T) {
	now := time.Date(2026, 5, 10, 8, 30, 15, 500, time.UTC)
	iss := newTestIssuer(t, now)

	cred, err := iss.Issue(testAccount(), "https://example.com/p.png")
	require.NoError(t, err)

	assert.NotEmpty(t, cred.Token)
	assert.Equal(t, now.Truncate(time.Second).Add(DefaultTTL), cred.ExpiresAt)

	c := cred.Claims
	assert.Equal(t, ClaimsVersion, c.Version)
	assert.Equal(t, testAccount().ID, c.Subject)
	assert.Equal(t, testAccount().ID, c.ID)
	assert.Equal(t, "new@x.com", c.Email)
	assert.Equal(t, "New User", c.Name)
	assert.Equal(t, "annotator", c.Role)
	assert.Equal(t, "https://example.com/p.png", c.Picture)
	assert.Equal(t, now.Truncate(time.Second), c.IssuedAt.Time)
	assert.Equal(t, cred.ExpiresAt, c.ExpiresAt.Time)
}

func TestIssue_RejectsEmptyAccount(t *testing.T) {
	iss := newTestIssuer(t, time.Now())

	_, err := iss.Issue(nil, "")
	assert.Error(t, err)

	_, err = iss.Issue(&account.Account{}, "")
	assert.Error(t, err)
}

func TestIssue_RejectsUnknownRole(t *testing.T) {
	iss := newTestIssuer(t, time.Now())

	for _, role := range []account.Role{"", "superuser", "Admin"} {
		a := testAccount()
		a.Role = role

		cred, err := iss.Issue(a, "")
		require.Error(t, err, "role %q", role)
		assert.ErrorIs(t, err, apperr.ErrInternal)
		assert.Empty(t, cred.Token)
	}
}

func TestIssue_AcceptsEveryKnownRole(t *testing.T) {
	iss := newTestIssuer(t, time.Now())

	for _, role := range []account.Role{account.RoleAnnotator, account.RoleProjectManager, account.RoleAdmin} {
		a := testAccount()
		a.Role = role

		cred, err := iss.Issue(a, "")
		require.NoError(t, err)
		assert.Equal(t, string(role), cred.Claims.Role)
	}
}

func TestParse_RoundTrip(t *testing.T) {
	now := time.Now()
	iss := newTestIssuer(t, now)

	cred, err := iss.Issue(testAccount(), "")
	require.NoError(t, err)

	claims, err := iss.Parse(cred.Token)
	require.NoError(t, err)
	assert.Equal(t, cred.Claims.Subject, claims.Subject)
	assert.Equal(t, "annotator", claims.Role)
	assert.Empty(t, claims.Picture)
}

func TestParse_Rejects(t *testing.T) {
	now := time.Now()
	iss := newTestIssuer(t, now)

	cred, err := iss.Issue(testAccount(), "")
	require.NoError(t, err)

	otherKey, err := NewIssuer(IssuerConfig{
		Secret: []byte("another-secret-another-secret-xx"),
		Issuer: "dashboard-auth",
	})
	require.NoError(t, err)
	foreign, err := otherKey.Issue(testAccount(), "")
	require.NoError(t, err)

	later := newTestIssuer(t, now.Add(DefaultTTL+time.Minute))

	parts := strings.Split(cred.Token, ".")
	require.Len(t, parts, 3)
	// swap the payload for one claiming a different role
	forgedClaims := cred.Claims
	forgedClaims.Role = "project manager"
	forgedToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, forgedClaims).SignedString([]byte("guess"))
	require.NoError(t, err)
	forgedParts := strings.Split(forgedToken, ".")
	tampered := parts[0] + "." + forgedParts[1] + "." + parts[2]

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, cred.Claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	oldVersion := cred.Claims
	oldVersion.Version = 0
	oldVersionToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, oldVersion).SignedString(testSecret)
	require.NoError(t, err)

	tests := []struct {
		name   string
		issuer *Issuer
		token  string
	}{
		{"empty", iss, ""},
		{"garbage", iss, "not-a-jwt"},
		{"tampered payload", iss, tampered},
		{"foreign secret", iss, foreign.Token},
		{"alg none", iss, noneToken},
		{"expired", later, cred.Token},
		{"unknown claims version", iss, oldVersionToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.issuer.Parse(tt.token)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperr.ErrInvalidToken)
		})
	}
}

func TestParse_WrongIssuer(t *testing.T) {
	now := time.Now()
	a := newTestIssuer(t, now)
	b, err := NewIssuer(IssuerConfig{Secret: testSecret, Issuer: "someone-else", Now: func() time.Time { return now }})
	require.NoError(t, err)

	cred, err := b.Issue(testAccount(), "")
	require.NoError(t, err)

	_, err = a.Parse(cred.Token)
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)
}

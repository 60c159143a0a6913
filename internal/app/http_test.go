package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dashboard-auth/internal/account"
	"dashboard-auth/internal/apperr"
	"dashboard-auth/internal/auth"
	"dashboard-auth/internal/auth/flow"
	"dashboard-auth/internal/auth/resolver"
	"dashboard-auth/internal/config"
	"dashboard-auth/internal/logger"
	"dashboard-auth/internal/metrics"
	"dashboard-auth/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticVerifier struct{}

func (staticVerifier) Verify(_ context.Context, raw string) (*auth.Identity, error) {
	if raw != "good" {
		return nil, apperr.Wrap(errors.New("bad signature"), apperr.ErrInvalidToken)
	}
	return &auth.Identity{Provider: "google", Subject: "1", Email: "New@X.com", Name: "New User"}, nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	issuer, err := session.NewIssuer(session.IssuerConfig{
		Secret: []byte("0123456789abcdef0123456789abcdef"),
		Issuer: "dashboard-auth",
	})
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	return NewRouter(RouterDeps{
		Flow:     flow.New(staticVerifier{}, resolver.NewDirectory(account.NewMemoryStore()), issuer, metrics.New(reg)),
		Issuer:   issuer,
		Gatherer: reg,
	})
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	r := newTestRouter(t)

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouter_LoginThenMe(t *testing.T) {
	r := newTestRouter(t)

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/google", strings.NewReader(`{"token":"good"}`))
	req.Header.Set("Content-Type", "application/json")
	rec = serve(r, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.DefaultCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)

	req = httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(cookie)
	rec = serve(r, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		User session.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "new@x.com", body.User.Email)
	assert.Equal(t, "annotator", body.User.Role)
	assert.Equal(t, "New User", body.User.Name)
}

func TestRouter_Metrics(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/google", strings.NewReader(`{"token":"bad"}`))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `auth_logins_total{outcome="invalid_token"} 1`)
}

func TestRouter_RecoveryLogsPanics(t *testing.T) {
	hook := test.NewLocal(logger.Logger())
	t.Cleanup(hook.Reset)

	r := newTestRouter(t)
	r.GET("/boom", func(c *gin.Context) {
		panic("boom")
	})

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	assert.Eventually(t, func() bool {
		for _, e := range hook.AllEntries() {
			if e.Level == logrus.ErrorLevel && strings.Contains(e.Message, "panic recovered") {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
}

func TestRouter_RedirectRoutesDisabledWithoutRegistry(t *testing.T) {
	r := newTestRouter(t)

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/oauth/login/google", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetupInfra(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		infra, err := setupInfra(ctx, config.StoreConfig{StoreDriver: "memory"})
		require.NoError(t, err)
		assert.IsType(t, &account.MemoryStore{}, infra.Accounts)
		assert.NoError(t, infra.Close())
	})

	t.Run("sqlite", func(t *testing.T) {
		infra, err := setupInfra(ctx, config.StoreConfig{
			StoreDriver: "sqlite",
			SQLitePath:  filepath.Join(t.TempDir(), "accounts.db"),
		})
		require.NoError(t, err)
		t.Cleanup(func() { _ = infra.Close() })

		acc := &account.Account{Email: "a@x.com", Name: "a", Role: account.DefaultRole}
		require.NoError(t, infra.Accounts.Insert(ctx, acc))
		found, err := infra.Accounts.FindByEmail(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, acc.ID, found.ID)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := setupInfra(ctx, config.StoreConfig{StoreDriver: "mongo"})
		assert.Error(t, err)
	})
}

func TestOpenSQL_RejectsNonSQLDriver(t *testing.T) {
	_, err := OpenSQL(context.Background(), config.StoreConfig{StoreDriver: "redis"})
	assert.Error(t, err)
}

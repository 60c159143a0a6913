package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"dashboard-auth/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestLogger_OmitsQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hook := test.NewLocal(logger.Logger())
	t.Cleanup(hook.Reset)

	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/oauth/callback/:provider", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/oauth/callback/google?code=secret-code&state=s", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "/oauth/callback/:provider", entry.Data["route"])
	assert.Equal(t, http.StatusOK, entry.Data["status"])
	for _, v := range entry.Data {
		if s, ok := v.(string); ok {
			assert.NotContains(t, s, "secret-code")
		}
	}
}

package middleware

import (
	"net/http"

	"dashboard-auth/internal/session"

	"github.com/gin-gonic/gin"
)

// GinClaimsKey is the gin context key holding *session.Claims.
const GinClaimsKey = "claims"

// GinRequireAuth runs RequireAuth inside a gin chain. Requests without a
// valid session cookie are answered 401 and the chain is aborted.
func GinRequireAuth(auth *AuthMiddleware) gin.HandlerFunc {
	return func(c *gin.Context) {
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.Request = r
			if claims, ok := ClaimsFromContext(r.Context()); ok {
				c.Set(GinClaimsKey, claims)
			}
			c.Next()
		})

		auth.RequireAuth(next).ServeHTTP(c.Writer, c.Request)

		// RequireAuth wrote the 401 itself
		if !c.IsAborted() && c.Writer.Written() && c.Writer.Status() == http.StatusUnauthorized {
			c.Abort()
		}
	}
}

// GinClaims returns the claims GinRequireAuth attached to c.
func GinClaims(c *gin.Context) (*session.Claims, bool) {
	v, ok := c.Get(GinClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*session.Claims)
	return claims, ok && claims != nil
}

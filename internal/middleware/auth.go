package middleware

import (
	"context"
	"net/http"

	"dashboard-auth/internal/session"
)

// unexported, collision-proof context key
type claimsContextKeyType struct{}

var claimsKey = claimsContextKeyType{}

// ClaimsFromContext extracts the authenticated session claims from context.
func ClaimsFromContext(ctx context.Context) (*session.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*session.Claims)
	return claims, ok && claims != nil
}

// AuthMiddleware authenticates requests by their session cookie. The
// cookie is trusted on signature and expiry alone; there is no
// server-side session lookup.
type AuthMiddleware struct {
	Issuer  *session.Issuer
	Cookies session.CookieOptions
}

func NewAuthMiddleware(issuer *session.Issuer, cookies session.CookieOptions) *AuthMiddleware {
	return &AuthMiddleware{Issuer: issuer, Cookies: cookies}
}

func (a *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 1. Read session cookie
		token := session.TokenFromRequest(r, a.Cookies)
		if token == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		// 2. Verify signature, expiry and claim version
		claims, err := a.Issuer.Parse(token)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		// 3. Attach claims to context
		ctx := context.WithValue(r.Context(), claimsKey, claims)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

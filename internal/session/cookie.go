package session

import (
	"net/http"
)

const DefaultCookieName = "session_token"

// CookieOptions defines how session cookies are issued. The session
// cookie is always HttpOnly.
type CookieOptions struct {
	Name     string
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

// normalize applies safe defaults without breaking callers
func (o CookieOptions) normalize() CookieOptions {
	if o.Name == "" {
		o.Name = DefaultCookieName
	}
	if o.Path == "" {
		o.Path = "/"
	}
	if o.SameSite == 0 || o.SameSite == http.SameSiteDefaultMode {
		// Lax blocks cross-site POSTs but keeps top-level navigation.
		o.SameSite = http.SameSiteLaxMode
	}
	return o
}

// ForRequest forces the Secure flag when r arrived over TLS.
func (o CookieOptions) ForRequest(r *http.Request) CookieOptions {
	if r != nil && r.TLS != nil {
		o.Secure = true
	}
	return o
}

// CookieFor builds the Set-Cookie directive carrying cred.
func CookieFor(cred Credential, opts CookieOptions) *http.Cookie {
	opts = opts.normalize()

	return &http.Cookie{
		Name:     opts.Name,
		Value:    cred.Token,
		Path:     opts.Path,
		Domain:   opts.Domain,
		Expires:  cred.ExpiresAt,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	}
}

// ClearCookie removes the session cookie from the client.
func ClearCookie(
	w http.ResponseWriter,
	opts CookieOptions,
) {
	opts = opts.normalize()

	http.SetCookie(w, &http.Cookie{
		Name:     opts.Name,
		Value:    "",
		Path:     opts.Path,
		Domain:   opts.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	})
}

// TokenFromRequest returns the session cookie value, or "" when absent.
func TokenFromRequest(r *http.Request, opts CookieOptions) string {
	cookie, err := r.Cookie(opts.normalize().Name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

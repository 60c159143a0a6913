package session

import "net/http"

// User is the non-sensitive view of an account returned to the client.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Confirmation is the body of a successful login response. It never
// carries the credential itself; the cookie does.
type Confirmation struct {
	OK   bool `json:"ok"`
	User User `json:"user"`
}

// Deliver sets the session cookie on w and returns the confirmation body.
func Deliver(w http.ResponseWriter, cred Credential, opts CookieOptions) Confirmation {
	http.SetCookie(w, CookieFor(cred, opts))

	return Confirmation{
		OK: true,
		User: User{
			ID:    cred.Claims.ID,
			Email: cred.Claims.Email,
			Name:  cred.Claims.Name,
			Role:  cred.Claims.Role,
		},
	}
}

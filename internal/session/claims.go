package session

import (
	"github.com/golang-jwt/jwt/v5"
)

// ClaimsVersion is the schema version written into every credential.
// Bump it when the claim set changes incompatibly; Parse rejects
// versions it does not know.
const ClaimsVersion = 1

// Claims is the signed payload of a session credential.
type Claims struct {
	Version int    `json:"ver"`
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	Picture string `json:"picture,omitempty"`

	jwt.RegisteredClaims
}

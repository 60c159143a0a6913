package account

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type Role string

const (
	RoleAnnotator      Role = "annotator"
	RoleProjectManager Role = "project manager"
	RoleAdmin          Role = "admin"

	// DefaultRole is the least-privileged role, given to every new account.
	DefaultRole = RoleAnnotator
)

// ErrNoLocalPassword is returned by CheckPassword for accounts that only
// authenticate through an external identity provider.
var ErrNoLocalPassword = errors.New("account has no local password")

// Account is the local record of a user, unique by normalized email.
type Account struct {
	ID    string
	Email string
	Name  string
	Role  Role

	// PasswordHash is a bcrypt hash and only meaningful when
	// HasLocalPassword is set. Externally authenticated accounts keep it
	// empty.
	PasswordHash     string
	HasLocalPassword bool

	CreatedAt   time.Time
	LastLoginAt time.Time
}

// CheckPassword compares password against the stored hash. It always fails
// for accounts without a local password, whatever the stored hash holds.
func (a *Account) CheckPassword(password string) error {
	if !a.HasLocalPassword || a.PasswordHash == "" {
		return ErrNoLocalPassword
	}
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password))
}

// NormalizeEmail lowercases and trims an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// LocalPart returns the part of email before the last "@".
func LocalPart(email string) string {
	if i := strings.LastIndex(email, "@"); i >= 0 {
		return email[:i]
	}
	return email
}

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleAnnotator, RoleProjectManager, RoleAdmin:
		return true
	}
	return false
}

package account

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound       = errors.New("account not found")
	ErrDuplicateEmail = errors.New("account email already exists")
)

// Store persists accounts. Implementations must enforce email uniqueness
// natively and report a violation as ErrDuplicateEmail from Insert.
type Store interface {
	// FindByEmail looks up an account by its normalized email and
	// returns ErrNotFound when none exists.
	FindByEmail(ctx context.Context, email string) (*Account, error)

	// Insert creates a. a.ID is assigned by the store when empty.
	Insert(ctx context.Context, a *Account) error

	// UpdateLastLogin sets the last-login time of the account with id and
	// returns ErrNotFound when no such account exists.
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}

package resolver

import (
	"context"

	"dashboard-auth/internal/account"
	"dashboard-auth/internal/auth"
)

// Resolver determines which local account an external identity belongs
// to, creating it on first sight. It is the ONLY place in the login flow
// that writes to the account store.
type Resolver interface {
	Resolve(
		ctx context.Context,
		identity *auth.Identity,
	) (*account.Account, error)
}

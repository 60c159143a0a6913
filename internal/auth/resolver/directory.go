package resolver

import (
	"context"
	"errors"
	"time"

	"dashboard-auth/internal/account"
	"dashboard-auth/internal/apperr"
	"dashboard-auth/internal/auth"
	"dashboard-auth/internal/logger"
)

// Directory is the account-store backed Resolver. It relies solely on the
// store's unique email constraint for concurrency control: insert first,
// and on conflict re-read the winner's record.
type Directory struct {
	store account.Store
	now   func() time.Time
}

var _ Resolver = (*Directory)(nil)

func NewDirectory(store account.Store) *Directory {
	return &Directory{
		store: store,
		now:   time.Now,
	}
}

// Resolve is the find-or-create of the login flow. An existing account
// only gets its last-login time touched; its role is never rewritten.
func (d *Directory) Resolve(
	ctx context.Context,
	identity *auth.Identity,
) (*account.Account, error) {

	if identity == nil || identity.Email == "" {
		return nil, apperr.Wrap(errors.New("identity without email"), apperr.ErrInternal)
	}

	email := account.NormalizeEmail(identity.Email)
	now := d.now().UTC()

	// 1. Existing account
	acc, err := d.store.FindByEmail(ctx, email)
	if err == nil {
		return d.touch(ctx, acc, now)
	}
	if !errors.Is(err, account.ErrNotFound) {
		return nil, apperr.Wrap(err, apperr.ErrStoreUnavailable)
	}

	// 2. First sight: create
	name := identity.Name
	if name == "" {
		name = account.LocalPart(email)
	}

	acc = &account.Account{
		Email:       email,
		Name:        name,
		Role:        account.DefaultRole,
		LastLoginAt: now,
	}

	err = d.store.Insert(ctx, acc)
	if err == nil {
		logger.Info("account created", map[string]any{
			"account_id": acc.ID,
			"provider":   identity.Provider,
		})
		return acc, nil
	}
	if !errors.Is(err, account.ErrDuplicateEmail) {
		return nil, apperr.Wrap(err, apperr.ErrStoreUnavailable)
	}

	// 3. Lost a create race: the other insert won, use its record
	acc, err = d.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrStoreUnavailable)
	}

	logger.Debug("account create raced, using existing record", map[string]any{
		"account_id": acc.ID,
	})

	return d.touch(ctx, acc, now)
}

func (d *Directory) touch(ctx context.Context, acc *account.Account, now time.Time) (*account.Account, error) {
	if err := d.store.UpdateLastLogin(ctx, acc.ID, now); err != nil {
		return nil, apperr.Wrap(err, apperr.ErrStoreUnavailable)
	}
	acc.LastLoginAt = now
	return acc, nil
}

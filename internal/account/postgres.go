package account

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"dashboard-auth/internal/db"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const pgUniqueViolation = "23505"

// PostgresStore keeps accounts in Postgres. Email uniqueness comes from
// the accounts_email_lower_unique index.
type PostgresStore struct {
	db *db.DB
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(db *db.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*Account, error) {
	var (
		a    Account
		id   uuid.UUID
		role string
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, name, role, password_hash, has_local_password,
		       created_at, last_login_at
		FROM accounts
		WHERE LOWER(email) = LOWER($1)
	`,
		NormalizeEmail(email),
	).Scan(
		&id,
		&a.Email,
		&a.Name,
		&role,
		&a.PasswordHash,
		&a.HasLocalPassword,
		&a.CreatedAt,
		&a.LastLoginAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	a.ID = id.String()
	a.Role = Role(role)
	return &a, nil
}

func (s *PostgresStore) Insert(ctx context.Context, a *Account) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.Email = NormalizeEmail(a.Email)

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO accounts (id, email, name, role, password_hash,
		                      has_local_password, last_login_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`,
		a.ID,
		a.Email,
		a.Name,
		string(a.Role),
		a.PasswordHash,
		a.HasLocalPassword,
		a.LastLoginAt,
	).Scan(&a.CreatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
		return ErrDuplicateEmail
	}
	return err
}

func (s *PostgresStore) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	// ids are uuid columns; anything else cannot match a row
	uid, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE accounts
		SET last_login_at = $2
		WHERE id = $1
	`, uid, at)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

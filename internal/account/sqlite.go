package account

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"dashboard-auth/internal/db"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLiteStore keeps accounts in a SQLite file. Email uniqueness comes
// from the accounts_email_unique index.
type SQLiteStore struct {
	db *db.DB
}

var _ Store = (*SQLiteStore)(nil)

func NewSQLiteStore(db *db.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func (s *SQLiteStore) FindByEmail(ctx context.Context, email string) (*Account, error) {
	var (
		a           Account
		role        string
		localPass   int64
		createdAt   int64
		lastLoginAt int64
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, name, role, password_hash, has_local_password,
		       created_at, last_login_at
		FROM accounts
		WHERE email = ?
	`, NormalizeEmail(email)).Scan(
		&a.ID,
		&a.Email,
		&a.Name,
		&role,
		&a.PasswordHash,
		&localPass,
		&createdAt,
		&lastLoginAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	a.Role = Role(role)
	a.HasLocalPassword = localPass != 0
	a.CreatedAt = fromMillis(createdAt)
	a.LastLoginAt = fromMillis(lastLoginAt)
	return &a, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, a *Account) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	a.Email = NormalizeEmail(a.Email)

	var localPass int64
	if a.HasLocalPassword {
		localPass = 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, email, name, role, password_hash,
		                      has_local_password, created_at, last_login_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		a.ID,
		a.Email,
		a.Name,
		string(a.Role),
		a.PasswordHash,
		localPass,
		toMillis(a.CreatedAt),
		toMillis(a.LastLoginAt),
	)
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	return err
}

func (s *SQLiteStore) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE accounts
		SET last_login_at = ?
		WHERE id = ?
	`, toMillis(at), id)
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

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	// extended result codes may be disabled on the connection
	return code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqliteErr.Error(), "UNIQUE")
}

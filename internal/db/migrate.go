package db

import (
	"context"
	"fmt"
)

const postgresMigration = `
CREATE EXTENSION IF NOT EXISTS "pgcrypto";

CREATE TABLE IF NOT EXISTS accounts (
    id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
    email text NOT NULL,
    name text NOT NULL,
    role text NOT NULL DEFAULT 'annotator',
    password_hash text NOT NULL DEFAULT '',
    has_local_password boolean NOT NULL DEFAULT false,
    created_at timestamptz NOT NULL DEFAULT NOW(),
    last_login_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS accounts_email_lower_unique
ON accounts (LOWER(email));
`

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS accounts (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL COLLATE NOCASE,
    name TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT 'annotator',
    password_hash TEXT NOT NULL DEFAULT '',
    has_local_password INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL,
    last_login_at INTEGER NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS accounts_email_unique
ON accounts (email);
`

// Migrate applies the accounts schema for the handle's dialect. It is
// idempotent.
func Migrate(ctx context.Context, d *DB) error {
	var ddl string
	switch d.Dialect {
	case DialectPostgres:
		ddl = postgresMigration
	case DialectSQLite:
		ddl = sqliteMigration
	default:
		return fmt.Errorf("migrate: unsupported dialect %q", d.Dialect)
	}

	if _, err := d.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("migrate %s: %w", d.Dialect, err)
	}
	return nil
}

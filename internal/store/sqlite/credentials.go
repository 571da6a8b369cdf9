// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Foundation Contributors

package sqlite

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"

	"github.com/foundation-hq/foundation/internal/store"
	fnderr "github.com/foundation-hq/foundation/pkg/errors"
)

// Compile-time interface check.
var _ store.CredentialStore = (*CredentialStore)(nil)

// CredentialStore implements store.CredentialStore backed by SQLite.
// Only hashed secrets and display masks are persisted; raw key material
// never reaches this layer.
type CredentialStore struct {
	db *sql.DB
}

// NewCredentialStore opens (or creates) a SQLite database at dbPath and
// initialises the auth_keys table.
func NewCredentialStore(dbPath string) (*CredentialStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fnderr.Wrapf(err, fnderr.CodeStoreDatabaseUnavailable, "opening credentials db")
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fnderr.Wrapf(err, fnderr.CodeStoreDatabaseUnavailable, "pinging credentials db")
	}

	if err := migrateCredentials(db); err != nil {
		_ = db.Close()
		return nil, fnderr.Wrapf(err, fnderr.CodeStoreDatabaseFailure, "migrating auth_keys table")
	}

	return &CredentialStore{db: db}, nil
}

func migrateCredentials(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS auth_keys (
	hashed_key TEXT PRIMARY KEY,
	mask       TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_auth_keys_created ON auth_keys(created_at);
`
	_, err := db.Exec(ddl)
	return err
}

// Add persists one credential row.
func (s *CredentialStore) Add(ctx context.Context, cred *store.Credential) error {
	if err := cred.Validate(); err != nil {
		return err
	}

	const q = `INSERT INTO auth_keys (hashed_key, mask, created_at) VALUES (?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q, cred.HashedSecret, cred.Mask, formatTime(cred.CreatedAt))
	if err != nil {
		return fnderr.Wrap(err, writeFailureCode(err), "inserting credential", fnderr.FieldMask(cred.Mask))
	}
	return nil
}

// Hashes returns every stored hashed secret.
func (s *CredentialStore) Hashes(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT hashed_key FROM auth_keys`)
	if err != nil {
		return nil, fnderr.Wrapf(err, fnderr.CodeStoreDatabaseFailure, "listing credential hashes")
	}
	defer func() { _ = rows.Close() }()

	var hashes []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, fnderr.Wrapf(err, fnderr.CodeStoreDatabaseFailure, "scanning credential hash")
		}
		hashes = append(hashes, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fnderr.Wrapf(err, fnderr.CodeStoreDatabaseFailure, "iterating credential hashes")
	}
	return hashes, nil
}

// DeleteByHash removes the row with the given hashed secret. An absent hash
// is a no-op, not an error.
func (s *CredentialStore) DeleteByHash(ctx context.Context, hashedSecret string) error {
	if hashedSecret == "" {
		return fnderr.New(fnderr.CodeStoreInvalidInput, "hashed secret is required")
	}

	_, err := s.db.ExecContext(ctx, `DELETE FROM auth_keys WHERE hashed_key = ?`, hashedSecret)
	if err != nil {
		return fnderr.Wrapf(err, writeFailureCode(err), "deleting credential")
	}
	return nil
}

// List returns display data for all credentials, newest first.
func (s *CredentialStore) List(ctx context.Context) ([]*store.Credential, error) {
	const q = `SELECT mask, created_at FROM auth_keys ORDER BY created_at DESC, rowid DESC`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fnderr.Wrapf(err, fnderr.CodeStoreDatabaseFailure, "listing credentials")
	}
	defer func() { _ = rows.Close() }()

	var creds []*store.Credential
	for rows.Next() {
		var c store.Credential
		var createdAt string
		if err := rows.Scan(&c.Mask, &createdAt); err != nil {
			return nil, fnderr.Wrapf(err, fnderr.CodeStoreDatabaseFailure, "scanning credential row")
		}
		c.CreatedAt, err = ParseTime(createdAt)
		if err != nil {
			return nil, err
		}
		creds = append(creds, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fnderr.Wrapf(err, fnderr.CodeStoreDatabaseFailure, "iterating credentials")
	}
	return creds, nil
}

// Count returns the number of stored credentials.
func (s *CredentialStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM auth_keys`).Scan(&n); err != nil {
		return 0, fnderr.Wrapf(err, fnderr.CodeStoreDatabaseFailure, "counting credentials")
	}
	return n, nil
}

// Close closes the underlying database connection.
func (s *CredentialStore) Close() error {
	return s.db.Close()
}

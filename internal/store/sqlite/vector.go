// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Foundation Contributors

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/foundation-hq/foundation/internal/store"
	fnderr "github.com/foundation-hq/foundation/pkg/errors"
)

func init() {
	sqlite_vec.Auto()
}

// Compile-time interface check.
var _ store.VectorIndex = (*VectorIndex)(nil)

// VectorIndex implements store.VectorIndex backed by SQLite with sqlite-vec.
// Records live in a plain table carrying the UNIQUE(text) constraint;
// embeddings live in a companion vec0 virtual table keyed by the record
// rowid. vec0's default metric is L2, so distances are Euclidean.
type VectorIndex struct {
	db         *sql.DB
	dimensions int
}

// NewVectorIndex opens (or creates) a SQLite database at dbPath and
// initialises the records table and the vec0 virtual table.
func NewVectorIndex(dbPath string, dimensions int) (*VectorIndex, error) {
	if dimensions <= 0 {
		return nil, fnderr.Errorf(fnderr.CodeStoreInvalidInput, "vector dimensions must be positive, got %d", dimensions)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fnderr.Wrapf(err, fnderr.CodeStoreDatabaseUnavailable, "opening vector db")
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fnderr.Wrapf(err, fnderr.CodeStoreDatabaseUnavailable, "pinging vector db")
	}

	if err := migrateVector(db, dimensions); err != nil {
		_ = db.Close()
		return nil, fnderr.Wrapf(err, fnderr.CodeStoreDatabaseFailure, "migrating vector tables")
	}

	return &VectorIndex{db: db, dimensions: dimensions}, nil
}

func migrateVector(db *sql.DB, dimensions int) error {
	// Text uniqueness is enforced here, at the storage layer, so concurrent
	// inserts of identical text cannot both land; the violation surfaces as
	// a conflict error instead of a silent duplicate.
	const recordsDDL = `
CREATE TABLE IF NOT EXISTS records (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	text       TEXT NOT NULL UNIQUE,
	metadata   TEXT NOT NULL DEFAULT '{}',
	created_at TEXT NOT NULL
)`
	if _, err := db.Exec(recordsDDL); err != nil {
		return err
	}

	vecDDL := fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS embeddings USING vec0(embedding float[%d])`, dimensions)
	if _, err := db.Exec(vecDDL); err != nil {
		return err
	}

	return nil
}

// Insert adds a record and its embedding in one transaction, assigning the
// record ID. A duplicate text fails the UNIQUE constraint and is reported
// as a conflict with nothing written.
func (v *VectorIndex) Insert(ctx context.Context, rec *store.VectorRecord) error {
	if err := rec.Validate(v.dimensions); err != nil {
		return err
	}

	blob, err := sqlite_vec.SerializeFloat32(rec.Embedding)
	if err != nil {
		return fnderr.Wrapf(err, fnderr.CodeStoreDatabaseFailure, "serializing embedding")
	}

	metaJSON := []byte("{}")
	if len(rec.Metadata) > 0 {
		metaJSON, err = json.Marshal(rec.Metadata)
		if err != nil {
			return fnderr.Wrapf(err, fnderr.CodeStoreDatabaseFailure, "marshalling metadata")
		}
	}

	tx, err := v.db.BeginTx(ctx, nil)
	if err != nil {
		return fnderr.Wrapf(err, fnderr.CodeStoreDatabaseUnavailable, "beginning insert transaction")
	}
	defer func() { _ = tx.Rollback() }()

	const insertRecord = `INSERT INTO records (text, metadata, created_at) VALUES (?, ?, ?)`
	res, err := tx.ExecContext(ctx, insertRecord, rec.Text, string(metaJSON), formatTime(rec.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fnderr.New(fnderr.CodeStoreInsertConflict, "text already exists", fnderr.FieldText(rec.Text))
		}
		return fnderr.Wrap(err, writeFailureCode(err), "inserting record", fnderr.FieldText(rec.Text))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fnderr.Wrapf(err, fnderr.CodeStoreDatabaseFailure, "reading inserted record id")
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO embeddings(rowid, embedding) VALUES (?, ?)`, id, blob); err != nil {
		return fnderr.Wrapf(err, writeFailureCode(err), "inserting embedding for record %d", id)
	}

	if err := tx.Commit(); err != nil {
		return fnderr.Wrapf(err, writeFailureCode(err), "committing record insert")
	}

	rec.ID = id
	return nil
}

// Search performs an exact k-nearest-neighbor scan and returns ranked
// results joined with their record rows.
func (v *VectorIndex) Search(ctx context.Context, query []float32, k int) ([]store.SearchResult, error) {
	if len(query) != v.dimensions {
		return nil, fnderr.Errorf(fnderr.CodeEmbedDimensionInvalid,
			"query has %d dimensions, index requires %d", len(query), v.dimensions)
	}
	if k <= 0 {
		return nil, fnderr.Errorf(fnderr.CodeStoreInvalidInput, "k must be positive, got %d", k)
	}

	blob, err := sqlite_vec.SerializeFloat32(query)
	if err != nil {
		return nil, fnderr.Wrapf(err, fnderr.CodeStoreDatabaseFailure, "serializing query vector")
	}

	const q = `SELECT e.rowid, e.distance, r.text, r.metadata
FROM embeddings e
JOIN records r ON r.id = e.rowid
WHERE e.embedding MATCH ? AND k = ?
ORDER BY e.distance`

	rows, err := v.db.QueryContext(ctx, q, blob, k)
	if err != nil {
		return nil, fnderr.Wrapf(err, fnderr.CodeStoreDatabaseFailure, "searching embeddings")
	}
	defer func() { _ = rows.Close() }()

	var results []store.SearchResult
	for rows.Next() {
		var r store.SearchResult
		var metaStr string

		if err := rows.Scan(&r.ID, &r.Distance, &r.Text, &metaStr); err != nil {
			return nil, fnderr.Wrapf(err, fnderr.CodeStoreDatabaseFailure, "scanning search result")
		}

		if metaStr != "" && metaStr != "{}" {
			if err := json.Unmarshal([]byte(metaStr), &r.Metadata); err != nil {
				return nil, fnderr.Wrapf(err, fnderr.CodeStoreDatabaseFailure, "unmarshalling record metadata")
			}
		}

		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fnderr.Wrapf(err, fnderr.CodeStoreDatabaseFailure, "iterating search results")
	}

	return results, nil
}

// DeleteByText removes the record matching text exactly, along with its
// embedding. Absent text is a no-op reported as success.
func (v *VectorIndex) DeleteByText(ctx context.Context, text string) error {
	if text == "" {
		return fnderr.New(fnderr.CodeStoreInvalidInput, "text is required")
	}

	tx, err := v.db.BeginTx(ctx, nil)
	if err != nil {
		return fnderr.Wrapf(err, fnderr.CodeStoreDatabaseUnavailable, "beginning delete transaction")
	}
	defer func() { _ = tx.Rollback() }()

	var id int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM records WHERE text = ?`, text).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fnderr.Wrap(err, fnderr.CodeStoreDatabaseFailure, "looking up record", fnderr.FieldText(text))
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM embeddings WHERE rowid = ?`, id); err != nil {
		return fnderr.Wrapf(err, writeFailureCode(err), "deleting embedding for record %d", id)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id); err != nil {
		return fnderr.Wrapf(err, writeFailureCode(err), "deleting record %d", id)
	}

	if err := tx.Commit(); err != nil {
		return fnderr.Wrapf(err, writeFailureCode(err), "committing record delete")
	}
	return nil
}

// Count returns the number of stored records.
func (v *VectorIndex) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := v.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, fnderr.Wrapf(err, fnderr.CodeStoreDatabaseFailure, "counting records")
	}
	return n, nil
}

// Ping reports whether the backing database is reachable.
func (v *VectorIndex) Ping(ctx context.Context) error {
	if err := v.db.PingContext(ctx); err != nil {
		return fnderr.Wrapf(err, fnderr.CodeStoreDatabaseUnavailable, "pinging vector db")
	}
	return nil
}

// Close closes the underlying database connection.
func (v *VectorIndex) Close() error {
	return v.db.Close()
}

func isUniqueViolation(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			serr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// writeFailureCode classifies a failed write. Busy and locked errors mean
// the database is under contention and the caller may retry, so they map to
// the unavailable code rather than a hard failure.
func writeFailureCode(err error) fnderr.Code {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		if serr.Code == sqlite3.ErrBusy || serr.Code == sqlite3.ErrLocked {
			return fnderr.CodeStoreDatabaseUnavailable
		}
	}
	return fnderr.CodeStoreDatabaseFailure
}

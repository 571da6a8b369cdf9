// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Foundation Contributors

package store

import "context"

// CredentialStore persists hashed API credentials. Raw key material never
// reaches this layer; callers hash before Add and compare against Hashes.
type CredentialStore interface {
	// Add persists a new credential row.
	Add(ctx context.Context, cred *Credential) error

	// Hashes returns every stored hashed secret. Credential verification is
	// a linear scan over this set; there is deliberately no lookup key.
	Hashes(ctx context.Context) ([]string, error)

	// DeleteByHash removes the credential with the given hashed secret.
	// Deleting an absent hash is a no-op.
	DeleteByHash(ctx context.Context, hashedSecret string) error

	// List returns display data (mask, created_at) for all credentials,
	// newest first.
	List(ctx context.Context) ([]*Credential, error)

	// Count returns the number of stored credentials.
	Count(ctx context.Context) (int64, error)

	Close() error
}

// VectorIndex persists text+embedding rows and answers exact
// nearest-neighbor queries by Euclidean distance.
type VectorIndex interface {
	// Insert adds a record, assigning its ID. A duplicate of an existing
	// record's text fails with a conflict error and writes nothing.
	Insert(ctx context.Context, rec *VectorRecord) error

	// Search ranks all stored rows by distance to query, ascending,
	// truncated to k. Tie order between equal distances is unspecified.
	Search(ctx context.Context, query []float32, k int) ([]SearchResult, error)

	// DeleteByText removes the record whose text matches exactly.
	// Idempotent: deleting absent text succeeds.
	DeleteByText(ctx context.Context, text string) error

	// Count returns the number of stored records.
	Count(ctx context.Context) (int64, error)

	// Ping reports whether the backing storage is reachable.
	Ping(ctx context.Context) error

	Close() error
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Foundation Contributors

package store

import (
	"time"

	fnderr "github.com/foundation-hq/foundation/pkg/errors"
)

// Credential is one row in the auth keys relation. The hashed secret is the
// only authoritative identity; there is no separate key ID.
type Credential struct {
	HashedSecret string
	Mask         string
	CreatedAt    time.Time
}

// Validate checks that the Credential has all required fields set.
func (c Credential) Validate() error {
	if c.HashedSecret == "" {
		return fnderr.New(fnderr.CodeStoreInvalidInput, "credential: HashedSecret is required")
	}
	if c.Mask == "" {
		return fnderr.New(fnderr.CodeStoreInvalidInput, "credential: Mask is required")
	}
	if c.CreatedAt.IsZero() {
		return fnderr.New(fnderr.CodeStoreInvalidInput, "credential: CreatedAt is required")
	}
	return nil
}

// VectorRecord is one row in the embeddings relation. ID is assigned by
// storage on insert and immutable thereafter.
type VectorRecord struct {
	ID        int64
	Text      string
	Embedding []float32
	Metadata  map[string]any
	CreatedAt time.Time
}

// Validate checks the record against the configured embedding dimension.
func (r VectorRecord) Validate(dimensions int) error {
	if r.Text == "" {
		return fnderr.New(fnderr.CodeStoreInvalidInput, "vector record: Text is required")
	}
	if len(r.Embedding) != dimensions {
		return fnderr.Errorf(fnderr.CodeEmbedDimensionInvalid,
			"vector record: embedding has %d dimensions, index requires %d",
			len(r.Embedding), dimensions)
	}
	if r.CreatedAt.IsZero() {
		return fnderr.New(fnderr.CodeStoreInvalidInput, "vector record: CreatedAt is required")
	}
	return nil
}

// SearchResult is one ranked row from a nearest-neighbor query.
// Distance is non-negative; smaller means more similar.
type SearchResult struct {
	ID       int64
	Text     string
	Metadata map[string]any
	Distance float64
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Foundation Contributors

package store

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	fnderr "github.com/foundation-hq/foundation/pkg/errors"
)

func init() {
	RegisterBackend("memory", func(_ string, dims int) (CredentialStore, VectorIndex, error) {
		return NewMemoryCredentialStore(), NewMemoryVectorIndex(dims), nil
	})
}

// Compile-time interface checks.
var (
	_ CredentialStore = (*MemoryCredentialStore)(nil)
	_ VectorIndex     = (*MemoryVectorIndex)(nil)
)

// MemoryCredentialStore is an in-memory CredentialStore used by tests and
// the "memory" backend. Goroutine-safe.
type MemoryCredentialStore struct {
	mu    sync.RWMutex
	creds []*Credential
}

func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{}
}

func (s *MemoryCredentialStore) Add(_ context.Context, cred *Credential) error {
	if err := cred.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c := *cred
	s.creds = append(s.creds, &c)
	return nil
}

func (s *MemoryCredentialStore) Hashes(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hashes := make([]string, 0, len(s.creds))
	for _, c := range s.creds {
		hashes = append(hashes, c.HashedSecret)
	}
	return hashes, nil
}

func (s *MemoryCredentialStore) DeleteByHash(_ context.Context, hashedSecret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, c := range s.creds {
		if c.HashedSecret == hashedSecret {
			s.creds = append(s.creds[:i], s.creds[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *MemoryCredentialStore) List(_ context.Context) ([]*Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Credential, 0, len(s.creds))
	for _, c := range s.creds {
		out = append(out, &Credential{Mask: c.Mask, CreatedAt: c.CreatedAt})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryCredentialStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.creds)), nil
}

func (s *MemoryCredentialStore) Close() error { return nil }

// MemoryVectorIndex is an in-memory VectorIndex used by tests and the
// "memory" backend. Distances use the same metric as the sqlite backend
// (Euclidean). Goroutine-safe.
type MemoryVectorIndex struct {
	mu         sync.RWMutex
	dimensions int
	nextID     int64
	records    []*VectorRecord
}

func NewMemoryVectorIndex(dimensions int) *MemoryVectorIndex {
	return &MemoryVectorIndex{dimensions: dimensions, nextID: 1}
}

func (v *MemoryVectorIndex) Insert(_ context.Context, rec *VectorRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	if err := rec.Validate(v.dimensions); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	for _, r := range v.records {
		if r.Text == rec.Text {
			return fnderr.New(fnderr.CodeStoreInsertConflict, "text already exists", fnderr.FieldText(rec.Text))
		}
	}

	rec.ID = v.nextID
	v.nextID++

	stored := *rec
	stored.Embedding = append([]float32(nil), rec.Embedding...)
	v.records = append(v.records, &stored)
	return nil
}

func (v *MemoryVectorIndex) Search(_ context.Context, query []float32, k int) ([]SearchResult, error) {
	if len(query) != v.dimensions {
		return nil, fnderr.Errorf(fnderr.CodeEmbedDimensionInvalid,
			"query has %d dimensions, index requires %d", len(query), v.dimensions)
	}
	if k <= 0 {
		return nil, fnderr.Errorf(fnderr.CodeStoreInvalidInput, "k must be positive, got %d", k)
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	results := make([]SearchResult, 0, len(v.records))
	for _, r := range v.records {
		results = append(results, SearchResult{
			ID:       r.ID,
			Text:     r.Text,
			Metadata: r.Metadata,
			Distance: euclidean(query, r.Embedding),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (v *MemoryVectorIndex) DeleteByText(_ context.Context, text string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	for i, r := range v.records {
		if r.Text == text {
			v.records = append(v.records[:i], v.records[i+1:]...)
			return nil
		}
	}
	return nil
}

func (v *MemoryVectorIndex) Count(_ context.Context) (int64, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return int64(len(v.records)), nil
}

func (v *MemoryVectorIndex) Ping(_ context.Context) error { return nil }

func (v *MemoryVectorIndex) Close() error { return nil }

func euclidean(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

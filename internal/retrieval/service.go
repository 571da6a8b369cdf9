// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Foundation Contributors

// Package retrieval glues the embedder to the vector index: it embeds
// text synchronously, then issues a single transactional statement against
// the index.
package retrieval

import (
	"context"
	"log/slog"
	"time"

	"github.com/foundation-hq/foundation/internal/embed"
	"github.com/foundation-hq/foundation/internal/store"
	fnderr "github.com/foundation-hq/foundation/pkg/errors"
)

// DefaultK is the result count for queries that do not specify k.
const DefaultK = 5

// Service answers insert/query/delete requests over the vector index.
type Service struct {
	index    store.VectorIndex
	embedder embed.Embedder
	logger   *slog.Logger
}

// NewService creates a retrieval Service. A nil logger falls back to
// slog.Default.
func NewService(index store.VectorIndex, embedder embed.Embedder, logger *slog.Logger) (*Service, error) {
	if index == nil {
		return nil, fnderr.New(fnderr.CodeStoreInvalidInput, "vector index is required")
	}
	if embedder == nil {
		return nil, fnderr.New(fnderr.CodeStoreInvalidInput, "embedder is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{index: index, embedder: embedder, logger: logger}, nil
}

// Insert embeds text and stores it with optional metadata. Duplicate text
// is a conflict and writes nothing.
func (s *Service) Insert(ctx context.Context, text string, metadata map[string]any) (*store.VectorRecord, error) {
	if text == "" {
		return nil, fnderr.New(fnderr.CodeStoreInvalidInput, "text is required")
	}

	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	rec := &store.VectorRecord{
		Text:      text,
		Embedding: vec,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}
	if err := s.index.Insert(ctx, rec); err != nil {
		return nil, err
	}

	s.logger.Debug("stored vector record", "id", rec.ID)
	return rec, nil
}

// Query embeds text and returns the k nearest stored records by Euclidean
// distance, ascending. k <= 0 uses DefaultK.
func (s *Service) Query(ctx context.Context, text string, k int) ([]store.SearchResult, error) {
	if text == "" {
		return nil, fnderr.New(fnderr.CodeStoreInvalidInput, "text is required")
	}
	if k <= 0 {
		k = DefaultK
	}

	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	return s.index.Search(ctx, vec, k)
}

// Delete removes the record matching text exactly. Idempotent.
func (s *Service) Delete(ctx context.Context, text string) error {
	if text == "" {
		return fnderr.New(fnderr.CodeStoreInvalidInput, "text is required")
	}
	return s.index.DeleteByText(ctx, text)
}

// Embed is the embedding-only pass-through: the vector for text without
// any storage side effect.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fnderr.New(fnderr.CodeStoreInvalidInput, "text is required")
	}
	return s.embedder.Embed(ctx, text)
}

// Ping reports whether the backing storage is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.index.Ping(ctx)
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Foundation Contributors

package server

import (
	"context"

	"github.com/foundation-hq/foundation/internal/auth"
	"github.com/foundation-hq/foundation/internal/store"
	fnderr "github.com/foundation-hq/foundation/pkg/errors"
	"github.com/foundation-hq/foundation/pkg/health"
)

// Services holds dependencies injected into route handlers.
// Each field is an interface so subsystems can be mocked in tests.
// Use the NewServices constructor to ensure all required services are provided.
type Services struct {
	keys      KeyService
	retrieval RetrievalService
	embedder  EmbedderStatus // optional; nil = /health/embed reports unavailable
}

// NewServices creates a Services instance with validation.
// Returns an error if any required service is nil.
// The optional embedder variadic parameter sets the embedder status provider.
func NewServices(keys KeyService, retrieval RetrievalService, embedder ...EmbedderStatus) (*Services, error) {
	if keys == nil {
		return nil, fnderr.New(fnderr.CodeServerConfigInvalid, "key service is required")
	}
	if retrieval == nil {
		return nil, fnderr.New(fnderr.CodeServerConfigInvalid, "retrieval service is required")
	}
	if len(embedder) > 1 {
		return nil, fnderr.New(fnderr.CodeServerConfigInvalid, "at most one embedder status provider may be supplied")
	}
	s := &Services{
		keys:      keys,
		retrieval: retrieval,
	}
	if len(embedder) > 0 && embedder[0] != nil {
		s.embedder = embedder[0]
	}
	return s, nil
}

// Keys returns the key service.
func (s *Services) Keys() KeyService {
	return s.keys
}

// Retrieval returns the retrieval service.
func (s *Services) Retrieval() RetrievalService {
	return s.retrieval
}

// Embedder returns the optional embedder status provider.
// Returns nil when embedder health metrics are not configured.
func (s *Services) Embedder() EmbedderStatus {
	return s.embedder
}

// KeyService provides credential operations for REST handlers.
type KeyService interface {
	// Issue mints a new API key after verifying the presented master key.
	Issue(ctx context.Context, masterKey string) (*auth.IssuedKey, error)
	// Verify reports whether the candidate matches a stored credential.
	Verify(ctx context.Context, candidate string) (bool, error)
	// Revoke removes the credential matching the candidate. Succeeds even
	// when nothing matches.
	Revoke(ctx context.Context, candidate string) error
	// List returns stored credentials, newest first, masks only.
	List(ctx context.Context) ([]*store.Credential, error)
}

// RetrievalService provides vector operations for REST handlers.
type RetrievalService interface {
	Insert(ctx context.Context, text string, metadata map[string]any) (*store.VectorRecord, error)
	Query(ctx context.Context, text string, k int) ([]store.SearchResult, error)
	Delete(ctx context.Context, text string) error
	Embed(ctx context.Context, text string) ([]float32, error)
	// Ping checks the vector store connection.
	Ping(ctx context.Context) error
}

// EmbedderStatus exposes embedder failure metrics for the health endpoint.
// This is optional; when nil, /health/embed reports the embedder as
// unconfigured.
type EmbedderStatus interface {
	Metrics() health.Metrics
}

// KeySummary is the REST representation of a credential in list results.
// Only the masked form is ever exposed.
type KeySummary struct {
	APIKey    string `json:"api_key" doc:"Masked API key"`
	CreatedAt string `json:"created_at,omitempty" doc:"Creation time, RFC 3339"`
}

// SearchHit is the REST representation of a nearest-neighbor match.
type SearchHit struct {
	ID       int64          `json:"id" doc:"Record identifier"`
	Text     string         `json:"text" doc:"Stored text"`
	Metadata map[string]any `json:"metadata,omitempty" doc:"Caller-supplied metadata"`
	Distance float64        `json:"distance" doc:"Euclidean distance to the query"`
}

// NewServicesForTest creates a Services instance for testing.
// It delegates to NewServices to enforce the same validation invariants as
// production code. Panics if any required service is nil.
func NewServicesForTest(keys KeyService, retrieval RetrievalService, embedder ...EmbedderStatus) *Services {
	svc, err := NewServices(keys, retrieval, embedder...)
	if err != nil {
		panic(err) // Test setup should provide all required services
	}
	return svc
}

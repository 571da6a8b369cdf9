// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Foundation Contributors

package server

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	fnderr "github.com/foundation-hq/foundation/pkg/errors"
	"github.com/foundation-hq/foundation/pkg/health"
)

// RegisterServices sets the service dependencies and registers REST routes.
func (s *Server) RegisterServices(svc *Services) {
	s.services = svc
	s.registerRoutes()
}

func (s *Server) registerRoutes() {
	// Credential endpoints
	huma.Register(s.api, huma.Operation{
		OperationID: "issue-key",
		Method:      http.MethodPost,
		Path:        "/api/v1/keys",
		Summary:     "Issue a new API key",
		Description: "Requires the master key as a Bearer token. The raw key is returned once and never stored.",
		Tags:        []string{"keys"},
	}, s.handleIssueKey)

	huma.Register(s.api, huma.Operation{
		OperationID: "verify-key",
		Method:      http.MethodPost,
		Path:        "/api/v1/keys/verify",
		Summary:     "Verify an API key",
		Tags:        []string{"keys"},
	}, s.handleVerifyKey)

	huma.Register(s.api, huma.Operation{
		OperationID: "list-keys",
		Method:      http.MethodGet,
		Path:        "/api/v1/keys",
		Summary:     "List issued API keys (masked)",
		Tags:        []string{"keys"},
	}, s.handleListKeys)

	huma.Register(s.api, huma.Operation{
		OperationID: "revoke-key",
		Method:      http.MethodDelete,
		Path:        "/api/v1/keys",
		Summary:     "Revoke an API key",
		Description: "Succeeds even when the key does not match any stored credential.",
		Tags:        []string{"keys"},
	}, s.handleRevokeKey)

	// Vector endpoints
	huma.Register(s.api, huma.Operation{
		OperationID: "insert-vector",
		Method:      http.MethodPost,
		Path:        "/api/v1/vectors",
		Summary:     "Embed and store a text record",
		Tags:        []string{"vectors"},
	}, s.handleInsertVector)

	huma.Register(s.api, huma.Operation{
		OperationID: "search-vectors",
		Method:      http.MethodPost,
		Path:        "/api/v1/vectors/search",
		Summary:     "Find nearest records for a query text",
		Tags:        []string{"vectors"},
	}, s.handleSearchVectors)

	huma.Register(s.api, huma.Operation{
		OperationID: "delete-vector",
		Method:      http.MethodDelete,
		Path:        "/api/v1/vectors",
		Summary:     "Delete a record by exact text",
		Tags:        []string{"vectors"},
	}, s.handleDeleteVector)

	huma.Register(s.api, huma.Operation{
		OperationID: "embed-text",
		Method:      http.MethodPost,
		Path:        "/api/v1/embed",
		Summary:     "Embed a text without storing it",
		Tags:        []string{"vectors"},
	}, s.handleEmbedText)

	// Health endpoints
	huma.Register(s.api, huma.Operation{
		OperationID: "health-db",
		Method:      http.MethodGet,
		Path:        "/health/db",
		Summary:     "Database health check",
		Tags:        []string{"system"},
	}, s.handleHealthDB)

	huma.Register(s.api, huma.Operation{
		OperationID: "health-embed",
		Method:      http.MethodGet,
		Path:        "/health/embed",
		Summary:     "Embedder health check",
		Tags:        []string{"system"},
	}, s.handleHealthEmbed)
}

// --- Request/Response types for huma ---

type AuthedInput struct {
	Authorization string `header:"Authorization" doc:"Bearer API key"`
}

type issueKeyOutput struct {
	Body struct {
		APIKey string `json:"api_key" doc:"Raw API key, shown only once"`
		Mask   string `json:"mask" doc:"Masked form used in listings"`
	}
}

type verifyKeyInput struct {
	Body struct {
		APIKey string `json:"api_key" minLength:"1" doc:"API key to verify"`
	}
}
type verifyKeyOutput struct {
	Body struct {
		Valid bool `json:"valid" doc:"Whether the key matches a stored credential"`
	}
}

type listKeysOutput struct {
	Body struct {
		Keys []KeySummary `json:"keys"`
	}
}

type revokeKeyInput struct {
	AuthedInput
	Body struct {
		APIKey string `json:"api_key" minLength:"1" doc:"API key to revoke"`
	}
}
type revokeKeyOutput struct {
	Body struct {
		Status string `json:"status" example:"revoked"`
	}
}

type insertVectorInput struct {
	AuthedInput
	Body struct {
		Text     string         `json:"text" minLength:"1" doc:"Text to embed and store"`
		Metadata map[string]any `json:"metadata,omitempty" doc:"Optional metadata stored with the record"`
	}
}
type insertVectorOutput struct {
	Status int
	Body   struct {
		ID        int64  `json:"id" doc:"Assigned record identifier"`
		Text      string `json:"text"`
		CreatedAt string `json:"created_at" doc:"Creation time, RFC 3339"`
	}
}

type searchVectorsInput struct {
	AuthedInput
	Body struct {
		Text string `json:"text" minLength:"1" doc:"Query text"`
		K    int    `json:"k,omitempty" minimum:"0" maximum:"100" doc:"Number of neighbors, default 5"`
	}
}
type searchVectorsOutput struct {
	Body struct {
		Results []SearchHit `json:"results"`
	}
}

type deleteVectorInput struct {
	AuthedInput
	Body struct {
		Text string `json:"text" minLength:"1" doc:"Exact text of the record to delete"`
	}
}
type deleteVectorOutput struct {
	Body struct {
		Status string `json:"status" example:"deleted"`
	}
}

type embedTextInput struct {
	AuthedInput
	Body struct {
		Text string `json:"text" minLength:"1" doc:"Text to embed"`
	}
}
type embedTextOutput struct {
	Body struct {
		Embedding  []float32 `json:"embedding"`
		Dimensions int       `json:"dimensions"`
	}
}

type healthDBOutput struct {
	Body struct {
		Status string `json:"status" example:"ok"`
	}
}

type healthEmbedOutput struct {
	Body struct {
		Status string `json:"status" example:"ok"`
		health.Metrics
	}
}

// --- Handlers ---

func (s *Server) handleIssueKey(ctx context.Context, input *AuthedInput) (*issueKeyOutput, error) {
	issued, err := s.services.Keys().Issue(ctx, bearerToken(input.Authorization))
	if err != nil {
		return nil, humaError(err, "issuing key")
	}
	out := &issueKeyOutput{}
	out.Body.APIKey = issued.RawKey
	out.Body.Mask = issued.Mask
	return out, nil
}

func (s *Server) handleVerifyKey(ctx context.Context, input *verifyKeyInput) (*verifyKeyOutput, error) {
	valid, err := s.services.Keys().Verify(ctx, input.Body.APIKey)
	if err != nil {
		return nil, humaError(err, "verifying key")
	}
	out := &verifyKeyOutput{}
	out.Body.Valid = valid
	return out, nil
}

func (s *Server) handleListKeys(ctx context.Context, input *AuthedInput) (*listKeysOutput, error) {
	if err := s.requireKey(ctx, input.Authorization); err != nil {
		return nil, err
	}

	creds, err := s.services.Keys().List(ctx)
	if err != nil {
		return nil, humaError(err, "listing keys")
	}

	out := &listKeysOutput{}
	out.Body.Keys = make([]KeySummary, 0, len(creds))
	for _, c := range creds {
		summary := KeySummary{APIKey: c.Mask}
		if !c.CreatedAt.IsZero() {
			summary.CreatedAt = c.CreatedAt.Format(time.RFC3339)
		}
		out.Body.Keys = append(out.Body.Keys, summary)
	}
	return out, nil
}

func (s *Server) handleRevokeKey(ctx context.Context, input *revokeKeyInput) (*revokeKeyOutput, error) {
	if err := s.requireKey(ctx, input.Authorization); err != nil {
		return nil, err
	}

	if err := s.services.Keys().Revoke(ctx, input.Body.APIKey); err != nil {
		return nil, humaError(err, "revoking key")
	}
	out := &revokeKeyOutput{}
	out.Body.Status = "revoked"
	return out, nil
}

func (s *Server) handleInsertVector(ctx context.Context, input *insertVectorInput) (*insertVectorOutput, error) {
	if err := s.requireKey(ctx, input.Authorization); err != nil {
		return nil, err
	}

	rec, err := s.services.Retrieval().Insert(ctx, input.Body.Text, input.Body.Metadata)
	if err != nil {
		return nil, humaError(err, "inserting record")
	}

	out := &insertVectorOutput{Status: http.StatusCreated}
	out.Body.ID = rec.ID
	out.Body.Text = rec.Text
	if !rec.CreatedAt.IsZero() {
		out.Body.CreatedAt = rec.CreatedAt.Format(time.RFC3339)
	}
	return out, nil
}

func (s *Server) handleSearchVectors(ctx context.Context, input *searchVectorsInput) (*searchVectorsOutput, error) {
	if err := s.requireKey(ctx, input.Authorization); err != nil {
		return nil, err
	}

	results, err := s.services.Retrieval().Query(ctx, input.Body.Text, input.Body.K)
	if err != nil {
		return nil, humaError(err, "searching records")
	}

	out := &searchVectorsOutput{}
	out.Body.Results = make([]SearchHit, 0, len(results))
	for _, r := range results {
		out.Body.Results = append(out.Body.Results, SearchHit{
			ID:       r.ID,
			Text:     r.Text,
			Metadata: r.Metadata,
			Distance: r.Distance,
		})
	}
	return out, nil
}

func (s *Server) handleDeleteVector(ctx context.Context, input *deleteVectorInput) (*deleteVectorOutput, error) {
	if err := s.requireKey(ctx, input.Authorization); err != nil {
		return nil, err
	}

	if err := s.services.Retrieval().Delete(ctx, input.Body.Text); err != nil {
		return nil, humaError(err, "deleting record")
	}
	out := &deleteVectorOutput{}
	out.Body.Status = "deleted"
	return out, nil
}

func (s *Server) handleEmbedText(ctx context.Context, input *embedTextInput) (*embedTextOutput, error) {
	if err := s.requireKey(ctx, input.Authorization); err != nil {
		return nil, err
	}

	embedding, err := s.services.Retrieval().Embed(ctx, input.Body.Text)
	if err != nil {
		return nil, humaError(err, "embedding text")
	}
	out := &embedTextOutput{}
	out.Body.Embedding = embedding
	out.Body.Dimensions = len(embedding)
	return out, nil
}

func (s *Server) handleHealthDB(ctx context.Context, _ *struct{}) (*healthDBOutput, error) {
	if err := s.services.Retrieval().Ping(ctx); err != nil {
		return nil, huma.Error503ServiceUnavailable("database unreachable", err)
	}
	out := &healthDBOutput{}
	out.Body.Status = "ok"
	return out, nil
}

func (s *Server) handleHealthEmbed(ctx context.Context, _ *struct{}) (*healthEmbedOutput, error) {
	status := s.services.Embedder()
	if status == nil {
		return nil, huma.Error503ServiceUnavailable("embedder not configured")
	}

	// Live round trip so the check reflects the endpoint, not just history.
	if _, err := s.services.Retrieval().Embed(ctx, "health check"); err != nil {
		return nil, huma.Error503ServiceUnavailable("embedder unreachable", err)
	}

	out := &healthEmbedOutput{}
	out.Body.Status = "ok"
	out.Body.Metrics = status.Metrics()
	return out, nil
}

// humaError maps a service error to the huma error matching its
// classification. Unclassified errors map to 500.
func humaError(err error, msg string) error {
	switch fnderr.HTTPStatus(err) {
	case http.StatusBadRequest:
		return huma.Error400BadRequest(msg, err)
	case http.StatusUnauthorized:
		return huma.Error401Unauthorized(msg, err)
	case http.StatusNotFound:
		return huma.Error404NotFound(msg, err)
	case http.StatusConflict:
		return huma.Error409Conflict(msg, err)
	case http.StatusBadGateway:
		return huma.Error502BadGateway(msg, err)
	case http.StatusServiceUnavailable:
		return huma.Error503ServiceUnavailable(msg, err)
	default:
		return huma.Error500InternalServerError(msg, err)
	}
}

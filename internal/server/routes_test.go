// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Foundation Contributors

package server_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foundation-hq/foundation/internal/auth"
	"github.com/foundation-hq/foundation/internal/server"
	"github.com/foundation-hq/foundation/internal/store"
	fnderr "github.com/foundation-hq/foundation/pkg/errors"
	"github.com/foundation-hq/foundation/pkg/health"
)

const (
	testMasterKey = "foundation_master0000000000000000000000000000000000000000000000000000000000"
	testAPIKey    = "foundation_issued0000000000000000000000000000000000000000000000000000000000"
)

// Mock service implementations for testing.
type mockKeyService struct {
	revoked []string
}

func (m *mockKeyService) Issue(_ context.Context, masterKey string) (*auth.IssuedKey, error) {
	if masterKey != testMasterKey {
		return nil, fnderr.New(fnderr.CodeAuthVerifyUnauthorized, "master key verification failed")
	}
	return &auth.IssuedKey{
		RawKey: testAPIKey,
		Mask:   auth.Mask(testAPIKey),
	}, nil
}

func (m *mockKeyService) Verify(_ context.Context, candidate string) (bool, error) {
	return candidate == testAPIKey || candidate == testMasterKey, nil
}

func (m *mockKeyService) Revoke(_ context.Context, candidate string) error {
	m.revoked = append(m.revoked, candidate)
	return nil
}

func (m *mockKeyService) List(_ context.Context) ([]*store.Credential, error) {
	return []*store.Credential{
		{Mask: auth.Mask(testAPIKey), CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)},
		{Mask: auth.Mask(testMasterKey)},
	}, nil
}

type mockRetrievalService struct {
	deleted []string
	pingErr error
}

func (m *mockRetrievalService) Insert(_ context.Context, text string, metadata map[string]any) (*store.VectorRecord, error) {
	if text == "duplicate" {
		return nil, fnderr.New(fnderr.CodeStoreInsertConflict, "text already exists")
	}
	return &store.VectorRecord{
		ID:        42,
		Text:      text,
		Metadata:  metadata,
		CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}, nil
}

func (m *mockRetrievalService) Query(_ context.Context, text string, k int) ([]store.SearchResult, error) {
	hits := []store.SearchResult{
		{ID: 1, Text: "closest", Distance: 0.5},
		{ID: 2, Text: "further", Distance: 1.5},
	}
	if k > 0 && k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

func (m *mockRetrievalService) Delete(_ context.Context, text string) error {
	m.deleted = append(m.deleted, text)
	return nil
}

func (m *mockRetrievalService) Embed(_ context.Context, text string) ([]float32, error) {
	if text == "upstream down" {
		return nil, fnderr.New(fnderr.CodeEmbedUpstreamFailure, "connection refused")
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (m *mockRetrievalService) Ping(_ context.Context) error {
	return m.pingErr
}

type mockEmbedderStatus struct{}

func (m *mockEmbedderStatus) Metrics() health.Metrics {
	return health.Metrics{Available: true}
}

func newTestServer(t *testing.T) (*server.Server, *mockKeyService, *mockRetrievalService) {
	t.Helper()
	srv, err := server.New(server.Config{ListenAddr: "127.0.0.1:0"}, slog.Default())
	require.NoError(t, err)

	keys := &mockKeyService{}
	retrieval := &mockRetrievalService{}
	srv.RegisterServices(server.NewServicesForTest(keys, retrieval, &mockEmbedderStatus{}))
	return srv, keys, retrieval
}

func doJSON(t *testing.T, srv *server.Server, method, path, bearer, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestIssueKey(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/keys", testMasterKey, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		APIKey string `json:"api_key"`
		Mask   string `json:"mask"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, testAPIKey, resp.APIKey)
	assert.True(t, strings.HasPrefix(resp.Mask, "foundation_issu"))
	assert.Contains(t, resp.Mask, "****")
}

func TestIssueKey_WrongMaster(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/keys", "foundation_wrong", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIssueKey_NoBearer(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/keys", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestVerifyKey(t *testing.T) {
	srv, _, _ := newTestServer(t)

	tests := []struct {
		name  string
		key   string
		valid bool
	}{
		{"known key", testAPIKey, true},
		{"unknown key", "foundation_nope000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, srv, http.MethodPost, "/api/v1/keys/verify", "",
				`{"api_key": "`+tt.key+`"}`)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var resp struct {
				Valid bool `json:"valid"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.valid, resp.Valid)
		})
	}
}

func TestVerifyKey_EmptyBodyRejected(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/keys/verify", "", `{"api_key": ""}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestListKeys(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/keys", testAPIKey, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Keys []server.KeySummary `json:"keys"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Keys, 2)
	assert.Equal(t, auth.Mask(testAPIKey), resp.Keys[0].APIKey)
	assert.NotEmpty(t, resp.Keys[0].CreatedAt)
	assert.Empty(t, resp.Keys[1].CreatedAt)
	// Raw keys never appear in listings.
	assert.NotContains(t, rec.Body.String(), testAPIKey)
}

func TestListKeys_Unauthorized(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/keys", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/keys", "foundation_invalid", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRevokeKey(t *testing.T) {
	srv, keys, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodDelete, "/api/v1/keys", testAPIKey,
		`{"api_key": "foundation_togoaway"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "revoked")
	assert.Equal(t, []string{"foundation_togoaway"}, keys.revoked)
}

func TestInsertVector(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/vectors", testAPIKey,
		`{"text": "hello world", "metadata": {"source": "test"}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		ID   int64  `json:"id"`
		Text string `json:"text"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(42), resp.ID)
	assert.Equal(t, "hello world", resp.Text)
}

func TestInsertVector_Duplicate(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/vectors", testAPIKey,
		`{"text": "duplicate"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestInsertVector_Unauthorized(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/vectors", "",
		`{"text": "hello"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSearchVectors(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/vectors/search", testAPIKey,
		`{"text": "hello"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Results []server.SearchHit `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "closest", resp.Results[0].Text)
	assert.Less(t, resp.Results[0].Distance, resp.Results[1].Distance)
}

func TestSearchVectors_KLimit(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/vectors/search", testAPIKey,
		`{"text": "hello", "k": 1}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Results []server.SearchHit `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Results, 1)
}

func TestDeleteVector(t *testing.T) {
	srv, _, retrieval := newTestServer(t)

	rec := doJSON(t, srv, http.MethodDelete, "/api/v1/vectors", testAPIKey,
		`{"text": "hello world"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "deleted")
	assert.Equal(t, []string{"hello world"}, retrieval.deleted)
}

func TestEmbedText(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/embed", testAPIKey,
		`{"text": "hello"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Embedding  []float32 `json:"embedding"`
		Dimensions int       `json:"dimensions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Embedding, 3)
	assert.Equal(t, 3, resp.Dimensions)
}

func TestEmbedText_UpstreamFailure(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/embed", testAPIKey,
		`{"text": "upstream down"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHealthDB(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/health/db", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthDB_Unreachable(t *testing.T) {
	srv, err := server.New(server.Config{ListenAddr: "127.0.0.1:0"}, slog.Default())
	require.NoError(t, err)
	retrieval := &mockRetrievalService{
		pingErr: fnderr.New(fnderr.CodeStoreDatabaseUnavailable, "database locked"),
	}
	srv.RegisterServices(server.NewServicesForTest(&mockKeyService{}, retrieval))

	rec := doJSON(t, srv, http.MethodGet, "/health/db", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthEmbed(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/health/embed", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"available":true`)
}

func TestHealthEmbed_NotConfigured(t *testing.T) {
	srv, err := server.New(server.Config{ListenAddr: "127.0.0.1:0"}, slog.Default())
	require.NoError(t, err)
	srv.RegisterServices(server.NewServicesForTest(&mockKeyService{}, &mockRetrievalService{}))

	rec := doJSON(t, srv, http.MethodGet, "/health/embed", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRequestIDHeader(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/health", "", "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

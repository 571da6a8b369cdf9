// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Foundation Contributors

package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	fnderr "github.com/foundation-hq/foundation/pkg/errors"
	"github.com/foundation-hq/foundation/pkg/health"
)

// Compile-time interface check.
var _ Embedder = (*Client)(nil)

const defaultTimeout = 120 * time.Second

// Client is an Embedder backed by an Ollama-style HTTP embedding endpoint
// (POST {endpoint}/api/embed with {"model":..., "input":...}).
type Client struct {
	endpoint   string
	model      string
	dimensions int
	httpClient *http.Client
	tracker    *health.Tracker
}

// embedRequest is the request body for the /api/embed endpoint.
type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

// embedResponse is the response from the /api/embed endpoint.
type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// NewClient creates an embedding client for the given endpoint and model.
// dimensions is the vector size every response must carry.
func NewClient(endpoint, model string, dimensions int) (*Client, error) {
	if endpoint == "" {
		return nil, fnderr.New(fnderr.CodeConfigValidateInvalidValue, "embedder endpoint is required")
	}
	if model == "" {
		return nil, fnderr.New(fnderr.CodeConfigValidateInvalidValue, "embedder model is required")
	}
	if dimensions <= 0 {
		return nil, fnderr.Errorf(fnderr.CodeConfigValidateInvalidValue, "embedder dimensions must be positive, got %d", dimensions)
	}

	return &Client{
		endpoint:   endpoint,
		model:      model,
		dimensions: dimensions,
		httpClient: &http.Client{Timeout: defaultTimeout},
		tracker:    health.NewTracker(),
	}, nil
}

// Embed returns the embedding vector for text. Transport failures surface
// as retryable upstream errors; a response with the wrong dimension is a
// contract violation, not something to repair here.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fnderr.New(fnderr.CodeStoreInvalidInput, "text is required")
	}

	body, err := json.Marshal(embedRequest{Model: c.model, Input: text})
	if err != nil {
		return nil, fnderr.Wrapf(err, fnderr.CodeEmbedUpstreamFailure, "marshalling embed request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fnderr.Wrapf(err, fnderr.CodeEmbedUpstreamFailure, "building embed request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.tracker.RecordFailure()
		return nil, fnderr.Wrapf(err, fnderr.CodeEmbedUpstreamFailure, "calling embedder at %s", c.endpoint)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		c.tracker.RecordFailure()
		return nil, fnderr.Errorf(fnderr.CodeEmbedUpstreamFailure, "embedder returned status %d", resp.StatusCode)
	}

	var result embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		c.tracker.RecordFailure()
		return nil, fnderr.Wrapf(err, fnderr.CodeEmbedResponseInvalid, "decoding embed response")
	}

	if len(result.Embeddings) == 0 || len(result.Embeddings[0]) == 0 {
		c.tracker.RecordFailure()
		return nil, fnderr.New(fnderr.CodeEmbedResponseInvalid, "embedder returned empty embeddings")
	}

	vec := result.Embeddings[0]
	if len(vec) != c.dimensions {
		c.tracker.RecordFailure()
		return nil, fnderr.Errorf(fnderr.CodeEmbedResponseInvalid,
			"embedder returned %d dimensions, expected %d", len(vec), c.dimensions)
	}

	c.tracker.RecordSuccess()
	return vec, nil
}

// Dimensions returns the configured embedding dimension.
func (c *Client) Dimensions() int {
	return c.dimensions
}

// Metrics returns the upstream health snapshot for the embed endpoint.
func (c *Client) Metrics() health.Metrics {
	return c.tracker.Snapshot()
}

// Close releases idle transport connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Foundation Contributors

package server

import (
	"context"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// bearerToken extracts the token from an Authorization header value.
// Returns empty string when the header is missing or not a Bearer scheme.
func bearerToken(authorization string) string {
	const prefix = "Bearer "
	if len(authorization) < len(prefix) || !strings.EqualFold(authorization[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(authorization[len(prefix):])
}

// requireKey authorizes a request by verifying the Bearer token against the
// credential store. Returns a huma error suitable for returning from a
// handler when authorization fails.
func (s *Server) requireKey(ctx context.Context, authorization string) error {
	token := bearerToken(authorization)
	if token == "" {
		return huma.Error401Unauthorized("missing API key")
	}

	valid, err := s.services.Keys().Verify(ctx, token)
	if err != nil {
		return humaError(err, "verifying API key")
	}
	if !valid {
		return huma.Error401Unauthorized("invalid API key")
	}
	return nil
}

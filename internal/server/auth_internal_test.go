// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Foundation Contributors

package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"standard", "Bearer foundation_abc", "foundation_abc"},
		{"lowercase scheme", "bearer foundation_abc", "foundation_abc"},
		{"surrounding whitespace", "Bearer  foundation_abc ", "foundation_abc"},
		{"empty header", "", ""},
		{"no scheme", "foundation_abc", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz", ""},
		{"scheme only", "Bearer ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, bearerToken(tt.header))
		})
	}
}

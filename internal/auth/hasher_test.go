// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Foundation Contributors

package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foundation-hq/foundation/internal/auth"
	fnderr "github.com/foundation-hq/foundation/pkg/errors"
)

// testHasher uses cheap cost parameters to keep the suite fast. Production
// costs only change derivation time, not behavior.
func testHasher() *auth.Hasher {
	return auth.NewHasherWithCosts(1, 64, 1, 16, 8)
}

func TestHashAndVerify(t *testing.T) {
	h := testHasher()

	encoded, err := h.Hash("foundation_secret")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$"))

	ok, err := h.Verify(encoded, "foundation_secret")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerify_Mismatch(t *testing.T) {
	h := testHasher()

	encoded, err := h.Hash("foundation_secret")
	require.NoError(t, err)

	ok, err := h.Verify(encoded, "foundation_wrong")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHash_SaltedPerCall(t *testing.T) {
	h := testHasher()

	first, err := h.Hash("foundation_secret")
	require.NoError(t, err)
	second, err := h.Hash("foundation_secret")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestVerify_ParametersFromStoredHash(t *testing.T) {
	// A hash produced with one cost set must verify under a Hasher
	// configured with different costs.
	expensive := auth.NewHasherWithCosts(2, 128, 2, 32, 16)
	encoded, err := expensive.Hash("foundation_secret")
	require.NoError(t, err)

	ok, err := testHasher().Verify(encoded, "foundation_secret")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerify_MalformedHash(t *testing.T) {
	h := testHasher()

	tests := []struct {
		name    string
		encoded string
	}{
		{"empty", ""},
		{"plain text", "not-a-hash"},
		{"wrong algorithm", "$bcrypt$v=19$m=64,t=1,p=1$c2FsdA$aGFzaA"},
		{"bad version", "$argon2id$v=18$m=64,t=1,p=1$c2FsdA$aGFzaA"},
		{"bad parameters", "$argon2id$v=19$garbage$c2FsdA$aGFzaA"},
		{"bad salt encoding", "$argon2id$v=19$m=64,t=1,p=1$!!!$aGFzaA"},
		{"bad digest encoding", "$argon2id$v=19$m=64,t=1,p=1$c2FsdA$!!!"},
		{"missing segments", "$argon2id$v=19$m=64,t=1,p=1"},
		{"zero time cost", "$argon2id$v=19$m=64,t=0,p=1$c2FsdA$aGFzaA"},
		{"zero memory cost", "$argon2id$v=19$m=0,t=1,p=1$c2FsdA$aGFzaA"},
		{"absurd memory cost", "$argon2id$v=19$m=4294967295,t=1,p=1$c2FsdA$aGFzaA"},
		{"zero parallelism", "$argon2id$v=19$m=64,t=1,p=0$c2FsdA$aGFzaA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Verify(tt.encoded, "anything")
			require.Error(t, err)
			assert.True(t, fnderr.HasCode(err, fnderr.CodeAuthHashInvalidFormat))
		})
	}
}

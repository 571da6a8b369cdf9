// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Foundation Contributors

package auth_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foundation-hq/foundation/internal/auth"
	"github.com/foundation-hq/foundation/internal/store"
)

func newTestManager(t *testing.T) (*auth.Manager, *store.MemoryCredentialStore) {
	t.Helper()
	creds := store.NewMemoryCredentialStore()
	mgr, err := auth.NewManager(creds, auth.NewHasherWithCosts(1, 64, 1, 16, 8), nil)
	require.NoError(t, err)
	return mgr, creds
}

func TestNewManager_Validation(t *testing.T) {
	_, err := auth.NewManager(nil, auth.NewHasher(), nil)
	assert.Error(t, err)

	_, err = auth.NewManager(store.NewMemoryCredentialStore(), nil, nil)
	assert.Error(t, err)
}

func TestBootstrap_GeneratesWhenUnconfigured(t *testing.T) {
	mgr, creds := newTestManager(t)
	ctx := context.Background()

	generated, err := mgr.Bootstrap(ctx, "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(generated, auth.KeyPrefix))

	count, err := creds.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	valid, err := mgr.Verify(ctx, generated)
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestBootstrap_UsesConfiguredMaster(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	generated, err := mgr.Bootstrap(ctx, "foundation_configured")
	require.NoError(t, err)
	assert.Empty(t, generated, "configured key must never be echoed back")

	valid, err := mgr.Verify(ctx, "foundation_configured")
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestBootstrap_NoopWhenSeeded(t *testing.T) {
	mgr, creds := newTestManager(t)
	ctx := context.Background()

	_, err := mgr.Bootstrap(ctx, "foundation_first")
	require.NoError(t, err)

	generated, err := mgr.Bootstrap(ctx, "foundation_second")
	require.NoError(t, err)
	assert.Empty(t, generated)

	count, err := creds.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// The second configured key was not seeded.
	valid, err := mgr.Verify(ctx, "foundation_second")
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestIssue(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	_, err := mgr.Bootstrap(ctx, "foundation_master")
	require.NoError(t, err)

	issued, err := mgr.Issue(ctx, "foundation_master")
	require.NoError(t, err)
	assert.Regexp(t, rawKeyPattern, issued.RawKey)
	assert.Equal(t, auth.Mask(issued.RawKey), issued.Mask)

	valid, err := mgr.Verify(ctx, issued.RawKey)
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestIssue_AnyValidCredentialAuthorizes(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	_, err := mgr.Bootstrap(ctx, "foundation_master")
	require.NoError(t, err)

	first, err := mgr.Issue(ctx, "foundation_master")
	require.NoError(t, err)

	// An issued key can itself authorize issuance.
	second, err := mgr.Issue(ctx, first.RawKey)
	require.NoError(t, err)
	assert.NotEqual(t, first.RawKey, second.RawKey)
}

func TestIssue_InvalidMaster(t *testing.T) {
	mgr, creds := newTestManager(t)
	ctx := context.Background()

	_, err := mgr.Bootstrap(ctx, "foundation_master")
	require.NoError(t, err)

	_, err = mgr.Issue(ctx, "foundation_wrong")
	require.Error(t, err)

	// Nothing was written on the failed attempt.
	count, err := creds.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestIssue_EmptyMaster(t *testing.T) {
	mgr, _ := newTestManager(t)

	_, err := mgr.Issue(context.Background(), "")
	assert.Error(t, err)
}

func TestVerify_EmptyCandidate(t *testing.T) {
	mgr, _ := newTestManager(t)

	valid, err := mgr.Verify(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestVerify_SkipsUnparsableHash(t *testing.T) {
	mgr, creds := newTestManager(t)
	ctx := context.Background()

	// A corrupt row must not block verification of intact rows.
	require.NoError(t, creds.Add(ctx, &store.Credential{
		HashedSecret: "corrupt-not-a-phc-string",
		Mask:         auth.Mask("foundation_corrupt"),
		CreatedAt:    time.Now(),
	}))

	hashed, err := auth.NewHasherWithCosts(1, 64, 1, 16, 8).Hash("foundation_real")
	require.NoError(t, err)
	require.NoError(t, creds.Add(ctx, &store.Credential{
		HashedSecret: hashed,
		Mask:         auth.Mask("foundation_real"),
		CreatedAt:    time.Now(),
	}))

	valid, err := mgr.Verify(ctx, "foundation_real")
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestVerify_SkipsHashWithInvalidParameters(t *testing.T) {
	mgr, creds := newTestManager(t)
	ctx := context.Background()

	// Well-formed PHC string with t=0. Argon2 rejects a zero time cost at
	// derivation time, so the row has to be discarded at parse time instead
	// of reaching derivation.
	require.NoError(t, creds.Add(ctx, &store.Credential{
		HashedSecret: "$argon2id$v=19$m=64,t=0,p=1$c2FsdHNhbHQ$aGFzaGhhc2g",
		Mask:         auth.Mask("foundation_broken"),
		CreatedAt:    time.Now(),
	}))

	valid, err := mgr.Verify(ctx, "foundation_anything")
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestRevoke(t *testing.T) {
	mgr, creds := newTestManager(t)
	ctx := context.Background()

	_, err := mgr.Bootstrap(ctx, "foundation_master")
	require.NoError(t, err)
	issued, err := mgr.Issue(ctx, "foundation_master")
	require.NoError(t, err)

	require.NoError(t, mgr.Revoke(ctx, issued.RawKey))

	valid, err := mgr.Verify(ctx, issued.RawKey)
	require.NoError(t, err)
	assert.False(t, valid)

	// Only the matched credential was removed.
	count, err := creds.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRevoke_NoMatchIsNoop(t *testing.T) {
	mgr, creds := newTestManager(t)
	ctx := context.Background()

	_, err := mgr.Bootstrap(ctx, "foundation_master")
	require.NoError(t, err)

	require.NoError(t, mgr.Revoke(ctx, "foundation_never_issued"))

	count, err := creds.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRevoke_EmptyKey(t *testing.T) {
	mgr, _ := newTestManager(t)
	assert.Error(t, mgr.Revoke(context.Background(), ""))
}

func TestRevoke_Idempotent(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	_, err := mgr.Bootstrap(ctx, "foundation_master")
	require.NoError(t, err)
	issued, err := mgr.Issue(ctx, "foundation_master")
	require.NoError(t, err)

	require.NoError(t, mgr.Revoke(ctx, issued.RawKey))
	require.NoError(t, mgr.Revoke(ctx, issued.RawKey))
}

func TestList_NewestFirstMasksOnly(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	_, err := mgr.Bootstrap(ctx, "foundation_master")
	require.NoError(t, err)
	issued, err := mgr.Issue(ctx, "foundation_master")
	require.NoError(t, err)

	creds, err := mgr.List(ctx)
	require.NoError(t, err)
	require.Len(t, creds, 2)

	for _, c := range creds {
		assert.Empty(t, c.HashedSecret, "hashes must not leave the store")
		assert.Contains(t, c.Mask, "****")
	}
	assert.Equal(t, issued.Mask, creds[0].Mask, "newest credential listed first")
}

// Full lifecycle: issue with the master key, use the issued key, revoke it,
// confirm it stops working while the master keeps working.
func TestKeyLifecycle(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	_, err := mgr.Bootstrap(ctx, "foundation_master")
	require.NoError(t, err)

	issued, err := mgr.Issue(ctx, "foundation_master")
	require.NoError(t, err)

	valid, err := mgr.Verify(ctx, issued.RawKey)
	require.NoError(t, err)
	require.True(t, valid)

	require.NoError(t, mgr.Revoke(ctx, issued.RawKey))

	valid, err = mgr.Verify(ctx, issued.RawKey)
	require.NoError(t, err)
	assert.False(t, valid)

	valid, err = mgr.Verify(ctx, "foundation_master")
	require.NoError(t, err)
	assert.True(t, valid)
}

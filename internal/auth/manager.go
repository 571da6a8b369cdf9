// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Foundation Contributors

// Package auth implements the credential lifecycle: hash-based key
// issuance, linear-scan verification, masked listing, and revocation.
// No plaintext key is ever persisted or logged.
package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/foundation-hq/foundation/internal/store"
	fnderr "github.com/foundation-hq/foundation/pkg/errors"
)

// IssuedKey is the result of issuing a new credential. RawKey is returned
// exactly once and is unrecoverable afterwards.
type IssuedKey struct {
	Mask   string
	RawKey string
}

// Manager owns the set of valid opaque API keys.
type Manager struct {
	creds  store.CredentialStore
	hasher *Hasher
	logger *slog.Logger
}

// NewManager creates a Manager. A nil logger falls back to slog.Default.
func NewManager(creds store.CredentialStore, hasher *Hasher, logger *slog.Logger) (*Manager, error) {
	if creds == nil {
		return nil, fnderr.New(fnderr.CodeAuthInvalidInput, "credential store is required")
	}
	if hasher == nil {
		return nil, fnderr.New(fnderr.CodeAuthInvalidInput, "hasher is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{creds: creds, hasher: hasher, logger: logger}, nil
}

// Bootstrap seeds the master credential when the table is empty. If no
// master key is configured one is generated and returned so the caller can
// surface it exactly once; otherwise the returned string is empty.
func (m *Manager) Bootstrap(ctx context.Context, configuredMaster string) (string, error) {
	count, err := m.creds.Count(ctx)
	if err != nil {
		return "", err
	}
	if count > 0 {
		return "", nil
	}

	master := configuredMaster
	generated := false
	if master == "" {
		master, err = NewRawKey()
		if err != nil {
			return "", err
		}
		generated = true
	}

	hashed, err := m.hasher.Hash(master)
	if err != nil {
		return "", err
	}

	cred := &store.Credential{
		HashedSecret: hashed,
		Mask:         Mask(master),
		CreatedAt:    time.Now(),
	}
	if err := m.creds.Add(ctx, cred); err != nil {
		return "", err
	}

	m.logger.Info("seeded master credential", "mask", cred.Mask, "generated", generated)

	if generated {
		return master, nil
	}
	return "", nil
}

// Issue creates a new credential. The presented master key must verify
// against some existing credential; any valid credential authorizes
// issuance. On failure nothing is written.
func (m *Manager) Issue(ctx context.Context, masterKey string) (*IssuedKey, error) {
	if masterKey == "" {
		return nil, fnderr.New(fnderr.CodeAuthInvalidInput, "master key is required")
	}

	ok, err := m.Verify(ctx, masterKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fnderr.New(fnderr.CodeAuthVerifyUnauthorized, "invalid master key")
	}

	raw, err := NewRawKey()
	if err != nil {
		return nil, err
	}
	mask := Mask(raw)

	hashed, err := m.hasher.Hash(raw)
	if err != nil {
		return nil, err
	}

	cred := &store.Credential{
		HashedSecret: hashed,
		Mask:         mask,
		CreatedAt:    time.Now(),
	}
	if err := m.creds.Add(ctx, cred); err != nil {
		return nil, err
	}

	m.logger.Info("issued credential", "mask", mask)
	return &IssuedKey{Mask: mask, RawKey: raw}, nil
}

// Verify reports whether candidate matches any stored credential. The scan
// is O(credential count) and each comparison is memory-hard by design;
// mismatches drive loop continuation, never errors. An unparsable stored
// hash is logged and treated as no-match for that row only.
func (m *Manager) Verify(ctx context.Context, candidate string) (bool, error) {
	if candidate == "" {
		return false, nil
	}

	_, matched, err := m.matchHash(ctx, candidate)
	if err != nil {
		return false, err
	}
	return matched, nil
}

// Revoke deletes the credential matching candidate. The matched hash is
// fetched before the delete is issued, so a concurrent revocation cannot
// redirect the delete; no match is a no-op reported as success.
func (m *Manager) Revoke(ctx context.Context, candidate string) error {
	if candidate == "" {
		return fnderr.New(fnderr.CodeAuthInvalidInput, "key is required")
	}

	hash, matched, err := m.matchHash(ctx, candidate)
	if err != nil {
		return err
	}
	if !matched {
		m.logger.Debug("revoke: no matching credential, nothing deleted")
		return nil
	}

	if err := m.creds.DeleteByHash(ctx, hash); err != nil {
		return err
	}
	m.logger.Info("revoked credential")
	return nil
}

// List returns display data for all credentials, newest first.
func (m *Manager) List(ctx context.Context) ([]*store.Credential, error) {
	return m.creds.List(ctx)
}

// matchHash scans all stored hashes and returns the first that verifies
// against candidate.
func (m *Manager) matchHash(ctx context.Context, candidate string) (string, bool, error) {
	hashes, err := m.creds.Hashes(ctx)
	if err != nil {
		return "", false, err
	}

	for _, h := range hashes {
		ok, verr := m.hasher.Verify(h, candidate)
		if verr != nil {
			// Malformed row: skip it rather than aborting the scan.
			m.logger.Warn("skipping unparsable stored hash", "error", verr)
			continue
		}
		if ok {
			return h, true, nil
		}
	}
	return "", false, nil
}

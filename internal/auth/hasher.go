// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Foundation Contributors

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	fnderr "github.com/foundation-hq/foundation/pkg/errors"
)

// Default Argon2id cost parameters. Memory is in KiB (64000 KiB ≈ 64 MB).
const (
	defaultTimeCost   = 3
	defaultMemoryKiB  = 64000
	defaultParallel   = 1
	defaultHashLength = 64
	defaultSaltLength = 16

	// Upper bound on the memory cost accepted from a stored hash, 4 GiB.
	maxMemoryKiB = 4 * 1024 * 1024
)

// Hasher produces and verifies Argon2id password hashes in PHC string
// format ($argon2id$v=19$m=...,t=...,p=...$salt$hash). Verification reads
// the cost parameters back out of the stored string, so stored hashes
// survive parameter changes.
type Hasher struct {
	timeCost   uint32
	memoryKiB  uint32
	parallel   uint8
	hashLength uint32
	saltLength int
}

// NewHasher returns a Hasher with the default cost parameters.
func NewHasher() *Hasher {
	return &Hasher{
		timeCost:   defaultTimeCost,
		memoryKiB:  defaultMemoryKiB,
		parallel:   defaultParallel,
		hashLength: defaultHashLength,
		saltLength: defaultSaltLength,
	}
}

// NewHasherWithCosts returns a Hasher with explicit cost parameters.
// Intended for tests, which use cheap costs to keep suites fast.
func NewHasherWithCosts(timeCost, memoryKiB uint32, parallel uint8, hashLength uint32, saltLength int) *Hasher {
	return &Hasher{
		timeCost:   timeCost,
		memoryKiB:  memoryKiB,
		parallel:   parallel,
		hashLength: hashLength,
		saltLength: saltLength,
	}
}

// Hash derives an Argon2id hash of secret with a fresh random salt and
// returns it PHC-encoded.
func (h *Hasher) Hash(secret string) (string, error) {
	salt := make([]byte, h.saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fnderr.Wrapf(err, fnderr.CodeAuthKeyGenFailure, "generating salt")
	}

	sum := argon2.IDKey([]byte(secret), salt, h.timeCost, h.memoryKiB, h.parallel, h.hashLength)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.memoryKiB, h.timeCost, h.parallel,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum),
	)
	return encoded, nil
}

// Verify reports whether candidate matches the PHC-encoded hash. A mismatch
// is (false, nil) — expected control flow, not an error. A hash that cannot
// be parsed returns an auth.hash.invalid_format error.
func (h *Hasher) Verify(encoded, candidate string) (bool, error) {
	memoryKiB, timeCost, parallel, salt, sum, err := decodeHash(encoded)
	if err != nil {
		return false, err
	}

	got := argon2.IDKey([]byte(candidate), salt, timeCost, memoryKiB, parallel, uint32(len(sum)))
	return subtle.ConstantTimeCompare(got, sum) == 1, nil
}

// decodeHash parses a PHC Argon2id string into its parameters, salt, and digest.
func decodeHash(encoded string) (memoryKiB, timeCost uint32, parallel uint8, salt, sum []byte, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return 0, 0, 0, nil, nil, fnderr.New(fnderr.CodeAuthHashInvalidFormat, "stored hash is not an argon2id PHC string")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return 0, 0, 0, nil, nil, fnderr.Wrapf(err, fnderr.CodeAuthHashInvalidFormat, "parsing hash version")
	}
	if version != argon2.Version {
		return 0, 0, 0, nil, nil, fnderr.Errorf(fnderr.CodeAuthHashInvalidFormat, "unsupported argon2 version %d", version)
	}

	var p uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memoryKiB, &timeCost, &p); err != nil {
		return 0, 0, 0, nil, nil, fnderr.Wrapf(err, fnderr.CodeAuthHashInvalidFormat, "parsing hash parameters")
	}
	if p == 0 || p > 255 {
		return 0, 0, 0, nil, nil, fnderr.Errorf(fnderr.CodeAuthHashInvalidFormat, "parallelism %d out of range", p)
	}
	parallel = uint8(p)

	// argon2.IDKey panics on t=0 and would attempt a memoryKiB*1024-byte
	// allocation, so reject parameters outside sane bounds here and let
	// callers treat the row as unparsable.
	if timeCost == 0 {
		return 0, 0, 0, nil, nil, fnderr.New(fnderr.CodeAuthHashInvalidFormat, "time cost must be at least 1")
	}
	if memoryKiB == 0 || memoryKiB > maxMemoryKiB {
		return 0, 0, 0, nil, nil, fnderr.Errorf(fnderr.CodeAuthHashInvalidFormat, "memory cost %d KiB out of range", memoryKiB)
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return 0, 0, 0, nil, nil, fnderr.Wrapf(err, fnderr.CodeAuthHashInvalidFormat, "decoding salt")
	}

	sum, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return 0, 0, 0, nil, nil, fnderr.Wrapf(err, fnderr.CodeAuthHashInvalidFormat, "decoding digest")
	}
	if len(sum) == 0 {
		return 0, 0, 0, nil, nil, fnderr.New(fnderr.CodeAuthHashInvalidFormat, "empty digest")
	}

	return memoryKiB, timeCost, parallel, salt, sum, nil
}

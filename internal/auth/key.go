// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Foundation Contributors

package auth

import (
	"crypto/rand"
	"math/big"
	"strings"

	fnderr "github.com/foundation-hq/foundation/pkg/errors"
)

// KeyPrefix is the fixed namespace tag every issued key starts with.
const KeyPrefix = "foundation_"

const (
	keySuffixLength = 64
	maskReveal      = 4
	maskFiller      = 60
)

const keyAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewRawKey generates a fresh API key: the namespace prefix followed by 64
// characters drawn uniformly from the alphanumeric alphabet using a
// cryptographic source.
func NewRawKey() (string, error) {
	var sb strings.Builder
	sb.Grow(len(KeyPrefix) + keySuffixLength)
	sb.WriteString(KeyPrefix)

	max := big.NewInt(int64(len(keyAlphabet)))
	for i := 0; i < keySuffixLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fnderr.Wrapf(err, fnderr.CodeAuthKeyGenFailure, "drawing random key character")
		}
		sb.WriteByte(keyAlphabet[n.Int64()])
	}
	return sb.String(), nil
}

// Mask returns the display-safe representation of a raw key: the namespace
// prefix, the first 4 characters of the secret part, and a fixed-length
// asterisk filler. The secret remainder is unrecoverable from the mask.
func Mask(raw string) string {
	secret := strings.TrimPrefix(raw, KeyPrefix)
	reveal := secret
	if len(reveal) > maskReveal {
		reveal = reveal[:maskReveal]
	}
	return KeyPrefix + reveal + strings.Repeat("*", maskFiller)
}

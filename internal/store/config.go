// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Foundation Contributors

package store

// Config controls which backend the store factory uses.
type Config struct {
	Backend          string // "sqlite" is the only production backend.
	VectorDimensions int    // Embedding dimensions; 0 uses the default (1024).
}

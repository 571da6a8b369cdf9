// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Foundation Contributors

// Package embed supplies text embeddings to the retrieval subsystem.
// The model is an explicitly constructed, injected dependency with its own
// lifecycle; nothing in this package is reached through global state.
package embed

import "context"

// Embedder converts text into a fixed-dimension numeric vector.
// Dimensions is a process-wide constant agreed with the storage schema.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
	Close() error
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Foundation Contributors

package store

import (
	"sync"

	fnderr "github.com/foundation-hq/foundation/pkg/errors"
)

// defaultVectorDimensions matches the deployment default of the granite
// multilingual embedding model.
const defaultVectorDimensions = 1024

// Factory creates both stores for a named backend given a data directory
// path and the embedding dimension.
type Factory func(dataPath string, vectorDims int) (CredentialStore, VectorIndex, error)

var (
	factories   = map[string]Factory{}
	factoriesMu sync.RWMutex
)

// RegisterBackend registers a factory function for a named storage backend.
// Backend packages call this from init(). Goroutine-safe.
func RegisterBackend(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

// resolveBackend returns the effective backend name, defaulting to "sqlite".
func resolveBackend(cfg *Config) string {
	if cfg.Backend == "" {
		return "sqlite"
	}
	return cfg.Backend
}

// New creates the credential store and vector index for the configured backend.
func New(cfg *Config, dataPath string) (CredentialStore, VectorIndex, error) {
	backend := resolveBackend(cfg)

	factoriesMu.RLock()
	factory, ok := factories[backend]
	factoriesMu.RUnlock()
	if !ok {
		return nil, nil, fnderr.Errorf(fnderr.CodeStoreBackendUnsupported, "unsupported storage backend: %q", backend)
	}

	dims := defaultVectorDimensions
	if cfg.VectorDimensions > 0 {
		dims = cfg.VectorDimensions
	}

	return factory(dataPath, dims)
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Foundation Contributors

package sqlite

import (
	"path/filepath"

	"github.com/foundation-hq/foundation/internal/store"
	fnderr "github.com/foundation-hq/foundation/pkg/errors"
)

func init() {
	store.RegisterBackend("sqlite", newStores)
}

func newStores(dataPath string, vectorDims int) (store.CredentialStore, store.VectorIndex, error) {
	cs, err := NewCredentialStore(filepath.Join(dataPath, "auth.db"))
	if err != nil {
		return nil, nil, fnderr.Wrapf(err, fnderr.CodeStoreDatabaseFailure, "creating credential store")
	}

	vi, err := NewVectorIndex(filepath.Join(dataPath, "vectors.db"), vectorDims)
	if err != nil {
		_ = cs.Close()
		return nil, nil, fnderr.Wrapf(err, fnderr.CodeStoreDatabaseFailure, "creating vector index")
	}

	return cs, vi, nil
}

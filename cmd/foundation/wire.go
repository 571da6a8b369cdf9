// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Foundation Contributors

package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/foundation-hq/foundation/internal/auth"
	"github.com/foundation-hq/foundation/internal/config"
	"github.com/foundation-hq/foundation/internal/embed"
	"github.com/foundation-hq/foundation/internal/retrieval"
	"github.com/foundation-hq/foundation/internal/server"
	"github.com/foundation-hq/foundation/internal/store"
	_ "github.com/foundation-hq/foundation/internal/store/sqlite" // register sqlite backend
	fnderr "github.com/foundation-hq/foundation/pkg/errors"
)

// Service holds all wired subsystems and manages their lifecycle.
type Service struct {
	Server      *server.Server
	Credentials store.CredentialStore
	Vectors     store.VectorIndex
	Embedder    *embed.Client
	Keys        *auth.Manager
	Retrieval   *retrieval.Service

	// GeneratedMasterKey is set when no master key was configured and
	// bootstrap minted one. It must be shown to the operator exactly once.
	GeneratedMasterKey string
}

// WireService creates all subsystems and wires them together.
func WireService(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Service, error) {
	if cfg.Storage.Backend == "sqlite" {
		if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
			return nil, fnderr.Errorf(fnderr.CodeCLISetupFailure, "creating data directory: %w", err)
		}
	}

	// 1. Storage.
	creds, vectors, err := store.New(&store.Config{
		Backend:          cfg.Storage.Backend,
		VectorDimensions: cfg.Embedder.Dimensions,
	}, cfg.Storage.DataDir)
	if err != nil {
		return nil, fnderr.Errorf(fnderr.CodeCLISetupFailure, "creating stores: %w", err)
	}

	closeStores := func() {
		_ = creds.Close()
		_ = vectors.Close()
	}

	// 2. Embedder client.
	embedder, err := embed.NewClient(cfg.Embedder.Endpoint, cfg.Embedder.Model, cfg.Embedder.Dimensions)
	if err != nil {
		closeStores()
		return nil, fnderr.Errorf(fnderr.CodeCLISetupFailure, "creating embedder client: %w", err)
	}

	// 3. Key manager; bootstrap seeds the master credential on first start.
	keys, err := auth.NewManager(creds, auth.NewHasher(), logger)
	if err != nil {
		closeStores()
		return nil, fnderr.Errorf(fnderr.CodeCLISetupFailure, "creating key manager: %w", err)
	}

	generated, err := keys.Bootstrap(ctx, cfg.Auth.MasterKey)
	if err != nil {
		closeStores()
		return nil, fnderr.Errorf(fnderr.CodeCLISetupFailure, "bootstrapping master key: %w", err)
	}

	// 4. Retrieval service.
	retrievalSvc, err := retrieval.NewService(vectors, embedder, logger)
	if err != nil {
		closeStores()
		return nil, fnderr.Errorf(fnderr.CodeCLISetupFailure, "creating retrieval service: %w", err)
	}

	// 5. HTTP server.
	srv, err := server.New(server.Config{
		ListenAddr:   cfg.Server.Listen,
		CORSOrigins:  cfg.Server.CORSOrigins,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, logger)
	if err != nil {
		closeStores()
		return nil, fnderr.Errorf(fnderr.CodeCLISetupFailure, "creating server: %w", err)
	}

	svcs, err := server.NewServices(keys, retrievalSvc, embedder)
	if err != nil {
		closeStores()
		return nil, fnderr.Errorf(fnderr.CodeCLISetupFailure, "wiring services: %w", err)
	}
	srv.RegisterServices(svcs)

	return &Service{
		Server:             srv,
		Credentials:        creds,
		Vectors:            vectors,
		Embedder:           embedder,
		Keys:               keys,
		Retrieval:          retrievalSvc,
		GeneratedMasterKey: generated,
	}, nil
}

// Close releases all subsystem resources.
func (s *Service) Close() {
	_ = s.Embedder.Close()
	_ = s.Credentials.Close()
	_ = s.Vectors.Close()
}

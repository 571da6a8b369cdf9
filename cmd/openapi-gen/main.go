// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Foundation Contributors

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/foundation-hq/foundation/internal/auth"
	"github.com/foundation-hq/foundation/internal/server"
	"github.com/foundation-hq/foundation/internal/store"
	fnderr "github.com/foundation-hq/foundation/pkg/errors"
	"github.com/foundation-hq/foundation/pkg/health"
)

func main() {
	spec, err := generateSpec()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	outPath := "api/openapi/spec.json"
	if len(os.Args) > 1 {
		outPath = os.Args[1]
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "error creating output dir: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(outPath, spec, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "error writing spec: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("OpenAPI spec written to %s\n", outPath)
}

// generateSpec creates a server with all routes registered and extracts the
// OpenAPI spec that huma generates from the Go type annotations.
func generateSpec() ([]byte, error) {
	srv, err := server.New(server.Config{ListenAddr: "127.0.0.1:0"}, nil)
	if err != nil {
		return nil, fnderr.Wrapf(err, fnderr.CodeCLISetupFailure, "creating server")
	}

	// No-op service stubs so all routes are registered for schema
	// discovery. Handlers are never invoked during spec generation.
	srv.RegisterServices(server.NewServicesForTest(&stubKeys{}, &stubRetrieval{}, &stubEmbedder{}))

	return json.MarshalIndent(srv.API().OpenAPI(), "", "  ")
}

type stubKeys struct{}

func (s *stubKeys) Issue(context.Context, string) (*auth.IssuedKey, error) { return nil, nil }

func (s *stubKeys) Verify(context.Context, string) (bool, error) { return false, nil }

func (s *stubKeys) Revoke(context.Context, string) error { return nil }

func (s *stubKeys) List(context.Context) ([]*store.Credential, error) { return nil, nil }

type stubRetrieval struct{}

func (s *stubRetrieval) Insert(context.Context, string, map[string]any) (*store.VectorRecord, error) {
	return nil, nil
}

func (s *stubRetrieval) Query(context.Context, string, int) ([]store.SearchResult, error) {
	return nil, nil
}
func (s *stubRetrieval) Delete(context.Context, string) error { return nil }

func (s *stubRetrieval) Embed(context.Context, string) ([]float32, error) { return nil, nil }

func (s *stubRetrieval) Ping(context.Context) error { return nil }

type stubEmbedder struct{}

func (s *stubEmbedder) Metrics() health.Metrics { return health.Metrics{} }

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DrugVista Contributors

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/drugvista/drugvista/internal/pipeline"
	"github.com/drugvista/drugvista/internal/server"
	dverr "github.com/drugvista/drugvista/pkg/errors"
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
	// Use no-op service stubs so all routes are registered for schema
	// discovery. Handlers are never invoked during spec generation.
	svc := server.NewServicesForTest(&stubAnalyzer{}, &stubIngest{}, &stubStats{})

	srv, err := server.New(server.Config{
		ListenAddr: "127.0.0.1:0",
	})
	if err != nil {
		return nil, dverr.Errorf(dverr.CodeCLISetupFailure, "creating server: %w", err)
	}
	srv.RegisterServices(svc)

	return json.MarshalIndent(srv.API().OpenAPI(), "", "  ")
}

// No-op service stubs for spec generation. Methods are never called.

type stubAnalyzer struct{}

func (s *stubAnalyzer) Analyze(context.Context, string) (pipeline.AnalysisRecord, error) {
	return pipeline.AnalysisRecord{}, nil
}

type stubIngest struct{}

func (s *stubIngest) IngestFile(context.Context, string, []byte, string, string) (int, error) {
	return 0, nil
}

func (s *stubIngest) IngestText(context.Context, string, string, string) (int, error) {
	return 0, nil
}

type stubStats struct{}

func (s *stubStats) Stats(context.Context) (*server.StatsDetail, error) {
	return &server.StatsDetail{}, nil
}

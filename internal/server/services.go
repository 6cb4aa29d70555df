// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DrugVista Contributors

package server

import (
	"context"

	"github.com/drugvista/drugvista/internal/pipeline"
	dverr "github.com/drugvista/drugvista/pkg/errors"
	"github.com/drugvista/drugvista/pkg/health"
)

// Services holds dependencies injected into route handlers.
// Each field is an interface so subsystems can be mocked in tests.
// Use NewServices constructor to ensure all required services are provided.
type Services struct {
	analyzer  AnalyzerService
	ingest    IngestService
	stats     StatsService
	providers ProviderStatusService // optional; nil = no provider block in status
}

// NewServices creates a Services instance with validation.
// Returns an error if any required service is nil.
// The optional providers variadic parameter sets the provider status service.
func NewServices(analyzer AnalyzerService, ingest IngestService, stats StatsService, providers ...ProviderStatusService) (*Services, error) {
	if analyzer == nil {
		return nil, dverr.New(dverr.CodeServerUnavailable, "analyzer service is required")
	}
	if ingest == nil {
		return nil, dverr.New(dverr.CodeServerUnavailable, "ingest service is required")
	}
	if stats == nil {
		return nil, dverr.New(dverr.CodeServerUnavailable, "stats service is required")
	}
	if len(providers) > 1 {
		return nil, dverr.New(dverr.CodeServerUnavailable, "at most one provider status service may be supplied")
	}
	s := &Services{
		analyzer: analyzer,
		ingest:   ingest,
		stats:    stats,
	}
	if len(providers) > 0 && providers[0] != nil {
		s.providers = providers[0]
	}
	return s, nil
}

// Analyzer returns the analysis service.
func (s *Services) Analyzer() AnalyzerService {
	return s.analyzer
}

// Ingest returns the ingestion service.
func (s *Services) Ingest() IngestService {
	return s.ingest
}

// Stats returns the statistics service.
func (s *Services) Stats() StatsService {
	return s.stats
}

// Providers returns the optional provider status service.
// Returns nil when no generation provider is configured.
func (s *Services) Providers() ProviderStatusService {
	return s.providers
}

// AnalyzerService runs the analysis pipeline for REST handlers.
type AnalyzerService interface {
	Analyze(ctx context.Context, query string) (pipeline.AnalysisRecord, error)
}

// IngestService adds documents to the corpus for REST handlers.
type IngestService interface {
	IngestFile(ctx context.Context, filename string, content []byte, docType, description string) (int, error)
	IngestText(ctx context.Context, content, docType, title string) (int, error)
}

// StatsService reports corpus statistics for REST handlers.
type StatsService interface {
	Stats(ctx context.Context) (*StatsDetail, error)
}

// ProviderStatusService reports generation provider availability.
// This is optional; when nil, the status endpoint omits the provider block.
type ProviderStatusService interface {
	Statuses(ctx context.Context) []ProviderStatusDetail
}

// StatsDetail is the REST representation of corpus statistics.
type StatsDetail struct {
	TotalDocuments     int    `json:"total_documents" doc:"Number of indexed documents"`
	IndexSize          int    `json:"index_size" doc:"Number of vectors in the index"`
	EmbeddingDimension int    `json:"embedding_dimension" doc:"Embedding vector dimensionality"`
	ModelName          string `json:"model_name" doc:"Embedding model identifier"`
}

// ProviderStatusDetail is the REST representation of one generation
// provider's availability.
type ProviderStatusDetail struct {
	Provider  string `json:"provider" doc:"Provider name"`
	Model     string `json:"model,omitempty" doc:"Default model for this provider"`
	Available bool   `json:"available" doc:"Whether the provider is currently usable"`
	health.Metrics
}

// NewServicesForTest creates a Services instance for testing.
// It delegates to NewServices to enforce the same validation invariants as
// production code. Panics if any required service is nil.
func NewServicesForTest(analyzer AnalyzerService, ingest IngestService, stats StatsService, providers ...ProviderStatusService) *Services {
	svc, err := NewServices(analyzer, ingest, stats, providers...)
	if err != nil {
		panic(err)
	}
	return svc
}

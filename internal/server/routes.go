// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DrugVista Contributors

package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/drugvista/drugvista/internal/pipeline"
	dverr "github.com/drugvista/drugvista/pkg/errors"
)

// RegisterServices sets the service dependencies and registers REST routes.
func (s *Server) RegisterServices(svc *Services) {
	s.services = svc
	s.registerRoutes()
	s.registerIngestRoute()
}

func (s *Server) registerRoutes() {
	// Analysis endpoint
	huma.Register(s.api, huma.Operation{
		OperationID: "analyze",
		Method:      http.MethodPost,
		Path:        "/api/v1/analyze",
		Summary:     "Analyze a drug, disease, or molecule query",
		Tags:        []string{"analysis"},
	}, s.handleAnalyze)

	// Text ingestion endpoint
	huma.Register(s.api, huma.Operation{
		OperationID: "ingest-text",
		Method:      http.MethodPost,
		Path:        "/api/v1/ingest-text",
		Summary:     "Ingest raw text into the corpus",
		Tags:        []string{"ingestion"},
	}, s.handleIngestText)

	// Statistics endpoint
	huma.Register(s.api, huma.Operation{
		OperationID: "stats",
		Method:      http.MethodGet,
		Path:        "/api/v1/stats",
		Summary:     "Corpus statistics",
		Tags:        []string{"system"},
	}, s.handleStats)

	// Status endpoint
	huma.Register(s.api, huma.Operation{
		OperationID: "service-status",
		Method:      http.MethodGet,
		Path:        "/api/v1/status",
		Summary:     "Service and provider status",
		Tags:        []string{"system"},
	}, s.handleStatus)
}

// --- Request/Response types for huma ---

type analyzeInput struct {
	Body struct {
		Query string `json:"query" doc:"Free-text query about a drug, disease, or molecule"`
	}
}
type analyzeOutput struct {
	Body pipeline.AnalysisRecord
}

type ingestTextInput struct {
	Body struct {
		Content string `json:"content" doc:"Document text (min 10 characters)"`
		DocType string `json:"doc_type,omitempty" doc:"Document type (paper, clinical_trial, market, patient_data)"`
		Title   string `json:"title,omitempty" doc:"Optional document title"`
	}
}

// IngestBody is the JSON body returned by both ingestion endpoints.
type IngestBody struct {
	Success        bool   `json:"success" doc:"Whether ingestion succeeded"`
	Message        string `json:"message" doc:"Human-readable result"`
	DocumentsAdded int    `json:"documents_added" doc:"Number of documents indexed"`
}

type ingestOutput struct {
	Body IngestBody
}

type statsOutput struct {
	Body StatsDetail
}

type statusOutput struct {
	Body struct {
		Status    string                 `json:"status" example:"ok" doc:"Service status"`
		Providers []ProviderStatusDetail `json:"providers,omitempty" doc:"Generation provider availability"`
	}
}

// --- Handlers ---

func (s *Server) handleAnalyze(ctx context.Context, input *analyzeInput) (*analyzeOutput, error) {
	record, err := s.services.Analyzer().Analyze(ctx, input.Body.Query)
	if err != nil {
		return nil, humaError(err)
	}
	return &analyzeOutput{Body: record}, nil
}

func (s *Server) handleIngestText(ctx context.Context, input *ingestTextInput) (*ingestOutput, error) {
	added, err := s.services.Ingest().IngestText(ctx, input.Body.Content, input.Body.DocType, input.Body.Title)
	if err != nil {
		return nil, humaError(err)
	}
	out := &ingestOutput{}
	out.Body = IngestBody{
		Success:        true,
		Message:        "Successfully added text data",
		DocumentsAdded: added,
	}
	return out, nil
}

func (s *Server) handleStats(ctx context.Context, _ *struct{}) (*statsOutput, error) {
	stats, err := s.services.Stats().Stats(ctx)
	if err != nil {
		return nil, humaError(err)
	}
	return &statsOutput{Body: *stats}, nil
}

func (s *Server) handleStatus(ctx context.Context, _ *struct{}) (*statusOutput, error) {
	out := &statusOutput{}
	out.Body.Status = "ok"
	if p := s.services.Providers(); p != nil {
		out.Body.Providers = p.Statuses(ctx)
	}
	return out, nil
}

// humaError converts a classified error into the matching huma status error.
func humaError(err error) error {
	switch dverr.HTTPStatus(err) {
	case http.StatusBadRequest:
		return huma.Error400BadRequest(err.Error())
	case http.StatusNotFound:
		return huma.Error404NotFound(err.Error())
	case http.StatusBadGateway:
		return huma.Error502BadGateway(err.Error())
	case http.StatusServiceUnavailable:
		return huma.Error503ServiceUnavailable(err.Error())
	default:
		slog.Error("request failed", "error", err, "code", dverr.CodeOf(err))
		return huma.Error500InternalServerError(fmt.Sprintf("internal error: %s", dverr.CodeOf(err)))
	}
}

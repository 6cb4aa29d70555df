// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DrugVista Contributors

package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drugvista/drugvista/internal/ingest"
	"github.com/drugvista/drugvista/internal/pipeline"
	"github.com/drugvista/drugvista/internal/server"
	dverr "github.com/drugvista/drugvista/pkg/errors"
)

// --- Fakes ---

type fakeAnalyzer struct {
	record pipeline.AnalysisRecord
	err    error
}

func (f *fakeAnalyzer) Analyze(_ context.Context, query string) (pipeline.AnalysisRecord, error) {
	if strings.TrimSpace(query) == "" || len(strings.TrimSpace(query)) < pipeline.MinQueryLength {
		return pipeline.AnalysisRecord{}, dverr.New(dverr.CodePipelineQueryInvalid, "query too short")
	}
	return f.record, f.err
}

type fakeIngest struct {
	lastFilename string
	lastDocType  string
	err          error
}

func (f *fakeIngest) IngestFile(_ context.Context, filename string, content []byte, docType, description string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	docs, err := ingest.ParseFile(filename, content, docType, description)
	if err != nil {
		return 0, err
	}
	f.lastFilename = filename
	f.lastDocType = docType
	return len(docs), nil
}

func (f *fakeIngest) IngestText(_ context.Context, content, docType, _ string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	if len(strings.TrimSpace(content)) < ingest.MinContentLength {
		return 0, dverr.New(dverr.CodeIngestContentTooShort, "content too short")
	}
	f.lastDocType = docType
	return 1, nil
}

type fakeStats struct {
	detail server.StatsDetail
}

func (f *fakeStats) Stats(context.Context) (*server.StatsDetail, error) {
	d := f.detail
	return &d, nil
}

type fakeProviders struct {
	statuses []server.ProviderStatusDetail
}

func (f *fakeProviders) Statuses(context.Context) []server.ProviderStatusDetail {
	return f.statuses
}

func newTestServer(t *testing.T, svc *server.Services) *httptest.Server {
	t.Helper()
	srv, err := server.New(server.Config{ListenAddr: "127.0.0.1:0"})
	require.NoError(t, err)
	if svc != nil {
		srv.RegisterServices(svc)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func defaultServices() *server.Services {
	return server.NewServicesForTest(
		&fakeAnalyzer{record: pipeline.AnalysisRecord{
			ClinicalViability: pipeline.ViabilityHigh,
			KeyEvidence:       []string{"aspirin_trial.txt"},
			MajorRisks:        []string{"standard development risks"},
			MarketSignal:      pipeline.MarketStrong,
			Recommendation:    pipeline.RecommendProceed,
			ConfidenceScore:   0.9,
			Explanation:       "strong evidence",
		}},
		&fakeIngest{},
		&fakeStats{detail: server.StatsDetail{
			TotalDocuments:     7,
			IndexSize:          7,
			EmbeddingDimension: 384,
			ModelName:          "local-token-hash",
		}},
	)
}

// --- Tests ---

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t, defaultServices())

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status              string `json:"status"`
		PipelineInitialized bool   `json:"pipeline_initialized"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body.Status)
	assert.True(t, body.PipelineInitialized)
}

func TestAnalyzeEndpoint(t *testing.T) {
	ts := newTestServer(t, defaultServices())

	resp, err := http.Post(ts.URL+"/api/v1/analyze", "application/json",
		strings.NewReader(`{"query": "aspirin cardiovascular outcomes"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var record pipeline.AnalysisRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&record))
	assert.Equal(t, pipeline.ViabilityHigh, record.ClinicalViability)
	assert.Equal(t, pipeline.RecommendProceed, record.Recommendation)
	assert.Equal(t, 0.9, record.ConfidenceScore)
}

func TestAnalyzeEndpoint_QueryTooShort(t *testing.T) {
	ts := newTestServer(t, defaultServices())

	resp, err := http.Post(ts.URL+"/api/v1/analyze", "application/json",
		strings.NewReader(`{"query": "ab"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIngestTextEndpoint(t *testing.T) {
	ts := newTestServer(t, defaultServices())

	resp, err := http.Post(ts.URL+"/api/v1/ingest-text", "application/json",
		strings.NewReader(`{"content": "Patient cohort showed improved outcomes.", "doc_type": "patient_data"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body server.IngestBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, 1, body.DocumentsAdded)
}

func TestIngestTextEndpoint_TooShort(t *testing.T) {
	ts := newTestServer(t, defaultServices())

	resp, err := http.Post(ts.URL+"/api/v1/ingest-text", "application/json",
		strings.NewReader(`{"content": "short"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func multipartUpload(t *testing.T, filename, content, docType string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)

	if docType != "" {
		require.NoError(t, mw.WriteField("doc_type", docType))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestIngestFileEndpoint_CSV(t *testing.T) {
	ts := newTestServer(t, defaultServices())

	csvData := "drug,outcome\n" +
		"aspirin,positive cardiovascular result\n" +
		"warfarin,bleeding complications observed\n" +
		"metformin,improved glycemic control\n"
	body, contentType := multipartUpload(t, "trials.csv", csvData, "clinical_trial")

	resp, err := http.Post(ts.URL+"/api/v1/ingest", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result server.IngestBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.True(t, result.Success)
	assert.Equal(t, 3, result.DocumentsAdded)
	assert.Contains(t, result.Message, "trials.csv")
}

func TestIngestFileEndpoint_UnsupportedExtension(t *testing.T) {
	ts := newTestServer(t, defaultServices())

	body, contentType := multipartUpload(t, "malware.exe", "binary content here", "paper")

	resp, err := http.Post(ts.URL+"/api/v1/ingest", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIngestFileEndpoint_MissingFile(t *testing.T) {
	ts := newTestServer(t, defaultServices())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("doc_type", "paper"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(ts.URL+"/api/v1/ingest", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStatsEndpoint(t *testing.T) {
	ts := newTestServer(t, defaultServices())

	resp, err := http.Get(ts.URL + "/api/v1/stats")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats server.StatsDetail
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, 7, stats.TotalDocuments)
	assert.Equal(t, 384, stats.EmbeddingDimension)
	assert.Equal(t, "local-token-hash", stats.ModelName)
}

func TestStatusEndpoint_WithProviders(t *testing.T) {
	svc := server.NewServicesForTest(
		&fakeAnalyzer{}, &fakeIngest{}, &fakeStats{},
		&fakeProviders{statuses: []server.ProviderStatusDetail{
			{Provider: "openai", Model: "gpt-4.1-mini", Available: true},
		}},
	)
	ts := newTestServer(t, svc)

	resp, err := http.Get(ts.URL + "/api/v1/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status    string                        `json:"status"`
		Providers []server.ProviderStatusDetail `json:"providers"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	require.Len(t, body.Providers, 1)
	assert.Equal(t, "openai", body.Providers[0].Provider)
	assert.True(t, body.Providers[0].Available)
}

func TestStatusEndpoint_WithoutProviders(t *testing.T) {
	ts := newTestServer(t, defaultServices())

	resp, err := http.Get(ts.URL + "/api/v1/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status    string `json:"status"`
		Providers []any  `json:"providers"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Empty(t, body.Providers)
}

func TestNewServices_Validation(t *testing.T) {
	_, err := server.NewServices(nil, &fakeIngest{}, &fakeStats{})
	require.Error(t, err)

	_, err = server.NewServices(&fakeAnalyzer{}, nil, &fakeStats{})
	require.Error(t, err)

	_, err = server.NewServices(&fakeAnalyzer{}, &fakeIngest{}, nil)
	require.Error(t, err)

	_, err = server.NewServices(&fakeAnalyzer{}, &fakeIngest{}, &fakeStats{})
	require.NoError(t, err)
}

func TestOpenAPIListsIngestRoute(t *testing.T) {
	srv, err := server.New(server.Config{ListenAddr: "127.0.0.1:0"})
	require.NoError(t, err)
	srv.RegisterServices(defaultServices())

	spec := srv.API().OpenAPI()
	require.NotNil(t, spec.Paths["/api/v1/ingest"])
	require.NotNil(t, spec.Paths["/api/v1/analyze"])
	require.NotNil(t, spec.Paths["/api/v1/stats"])
}

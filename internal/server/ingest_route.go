// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DrugVista Contributors

package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	dverr "github.com/drugvista/drugvista/pkg/errors"
)

// maxUploadBytes bounds multipart uploads.
const maxUploadBytes = 32 << 20

func (s *Server) registerIngestRoute() {
	s.router.Post("/api/v1/ingest", s.handleIngestFile)

	// Register the operation in the OpenAPI spec manually. The multipart
	// upload handler needs raw http.Request access for the form file, so it
	// cannot use Huma's standard handler signature. We keep the chi route
	// above for actual request handling and add the spec entry here for
	// documentation.
	s.api.OpenAPI().AddOperation(&huma.Operation{
		OperationID: "ingest-file",
		Method:      http.MethodPost,
		Path:        "/api/v1/ingest",
		Summary:     "Ingest a document file into the corpus",
		Description: "Upload a .txt, .csv, or .json file. CSV files produce one document per row, JSON arrays one per element. PDF and DOCX uploads are recognized but rejected because text extraction is not implemented.",
		Tags:        []string{"ingestion"},
		RequestBody: &huma.RequestBody{
			Required: true,
			Content: map[string]*huma.MediaType{
				"multipart/form-data": {
					Schema: &huma.Schema{
						Type:     "object",
						Required: []string{"file"},
						Properties: map[string]*huma.Schema{
							"file": {
								Type:        "string",
								Format:      "binary",
								Description: "Document file (.txt, .csv, .json)",
							},
							"doc_type": {
								Type:        "string",
								Description: "Document type (paper, clinical_trial, market, patient_data)",
							},
							"description": {
								Type:        "string",
								Description: "Optional document description",
							},
						},
					},
				},
			},
		},
		Responses: map[string]*huma.Response{
			"200": {
				Description: "Ingestion result",
				Content: map[string]*huma.MediaType{
					"application/json": {
						Schema: &huma.Schema{
							Type: "object",
							Properties: map[string]*huma.Schema{
								"success":         {Type: "boolean"},
								"message":         {Type: "string"},
								"documents_added": {Type: "integer"},
							},
						},
					},
				},
			},
			"400": {Description: "Unsupported file type, malformed payload, or content too short"},
			"503": {Description: "Ingest service not configured"},
		},
	})
}

func (s *Server) handleIngestFile(w http.ResponseWriter, r *http.Request) {
	if s.services == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "ingest service not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "reading upload")
		return
	}

	added, err := s.services.Ingest().IngestFile(r.Context(), header.Filename, content,
		r.FormValue("doc_type"), r.FormValue("description"))
	if err != nil {
		writeJSONError(w, dverr.HTTPStatus(err), err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(IngestBody{
		Success:        true,
		Message:        fmt.Sprintf("Successfully ingested %d record(s) from %s", added, header.Filename),
		DocumentsAdded: added,
	})
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": msg})
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DrugVista Contributors

// Package ingest turns uploaded files and raw text into indexed documents.
// CSV files produce one document per data row, JSON arrays one per element,
// and JSON objects or plain text a single document.
package ingest

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/drugvista/drugvista/internal/embedding"
	"github.com/drugvista/drugvista/internal/store"
	dverr "github.com/drugvista/drugvista/pkg/errors"
)

// MinContentLength is the minimum trimmed length for ingested content,
// applied to whole files, individual CSV rows, and JSON array elements.
const MinContentLength = 10

// allowedExtensions lists the upload extensions the API accepts. PDF and
// DOCX are recognized but text extraction for them is not implemented.
var allowedExtensions = map[string]bool{
	".txt":  true,
	".csv":  true,
	".json": true,
	".pdf":  true,
	".docx": true,
}

// DefaultDocType applies when an upload does not specify one.
const DefaultDocType = store.DocTypePatientData

// Service embeds parsed documents and writes them to the index.
type Service struct {
	index    store.Index
	embedder embedding.Embedder
}

// New creates an ingest Service.
func New(index store.Index, embedder embedding.Embedder) (*Service, error) {
	if index == nil {
		return nil, dverr.New(dverr.CodeConfigValidateInvalidValue, "ingest: index is required")
	}
	if embedder == nil {
		return nil, dverr.New(dverr.CodeConfigValidateInvalidValue, "ingest: embedder is required")
	}
	return &Service{index: index, embedder: embedder}, nil
}

// IngestFile parses an uploaded file into documents and indexes them.
// Returns the number of documents added.
func (s *Service) IngestFile(ctx context.Context, filename string, content []byte, docType, description string) (int, error) {
	docs, err := ParseFile(filename, content, docType, description)
	if err != nil {
		return 0, err
	}
	if err := s.add(ctx, docs); err != nil {
		return 0, err
	}
	slog.Info("ingested file", "filename", filename, "documents", len(docs))
	return len(docs), nil
}

// IngestText wraps raw text into a single document and indexes it.
func (s *Service) IngestText(ctx context.Context, content, docType, title string) (int, error) {
	if utf8.RuneCountInString(strings.TrimSpace(content)) < MinContentLength {
		return 0, dverr.Errorf(dverr.CodeIngestContentTooShort,
			"content too short (min %d characters)", MinContentLength)
	}

	dt, err := parseDocType(docType)
	if err != nil {
		return 0, err
	}

	filename := title
	if filename == "" {
		filename = "user_text_input"
	}
	descTitle := title
	if descTitle == "" {
		descTitle = "Patient data"
	}

	doc := store.Document{
		Content:     content,
		Filename:    filename,
		Type:        dt,
		Description: "Text input: " + descTitle,
	}
	if err := s.add(ctx, []store.Document{doc}); err != nil {
		return 0, err
	}
	slog.Info("ingested text", "title", filename)
	return 1, nil
}

func (s *Service) add(ctx context.Context, docs []store.Document) error {
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return dverr.Wrapf(err, dverr.CodeIngestWriteFailure, "embedding %d documents", len(docs))
	}
	if err := s.index.Add(ctx, docs, vectors); err != nil {
		return dverr.Wrapf(err, dverr.CodeIngestWriteFailure, "indexing %d documents", len(docs))
	}
	return nil
}

// ParseFile converts an upload into documents without touching the index.
func ParseFile(filename string, content []byte, docType, description string) ([]store.Document, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return nil, dverr.Errorf(dverr.CodeIngestFileUnsupported,
			"file type %q not supported, allowed: .txt, .csv, .json, .pdf, .docx", ext)
	}
	if ext == ".pdf" || ext == ".docx" {
		return nil, dverr.Errorf(dverr.CodeIngestFileUnsupported,
			"%s text extraction is not implemented, convert to .txt, .csv or .json first", ext)
	}

	if !utf8.Valid(content) {
		return nil, dverr.New(dverr.CodeIngestEncodingInvalid, "file must be UTF-8 encoded text")
	}
	text := string(content)
	if utf8.RuneCountInString(strings.TrimSpace(text)) < MinContentLength {
		return nil, dverr.Errorf(dverr.CodeIngestContentTooShort,
			"file content too short (min %d characters)", MinContentLength)
	}

	dt, err := parseDocType(docType)
	if err != nil {
		return nil, err
	}

	var docs []store.Document
	switch ext {
	case ".csv":
		docs, err = parseCSV(filename, text, dt, description)
	case ".json":
		docs, err = parseJSON(filename, text, dt, description)
	default:
		docs = []store.Document{{
			Content:     text,
			Filename:    filename,
			Type:        dt,
			Description: defaultDescription(description, "User uploaded: "+filename),
		}}
	}
	if err != nil {
		return nil, err
	}

	if len(docs) == 0 {
		return nil, dverr.New(dverr.CodeIngestPayloadInvalid, "no valid content found in file")
	}
	return docs, nil
}

// parseCSV emits one document per data row. Each row renders as
// "header: value" lines, empty cells omitted; rows below the minimum
// content length are skipped.
func parseCSV(filename, text string, dt store.DocType, description string) ([]store.Document, error) {
	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, dverr.Wrap(err, dverr.CodeIngestPayloadInvalid, "invalid CSV format")
	}
	if len(records) < 2 {
		return nil, nil
	}

	header := records[0]
	var docs []store.Document
	for rowNum, row := range records[1:] {
		var lines []string
		for i, value := range row {
			if i >= len(header) || value == "" {
				continue
			}
			lines = append(lines, header[i]+": "+value)
		}

		rowText := strings.Join(lines, "\n")
		if utf8.RuneCountInString(strings.TrimSpace(rowText)) < MinContentLength {
			continue
		}

		docs = append(docs, store.Document{
			Content:     rowText,
			Filename:    fmt.Sprintf("%s_row_%d", filename, rowNum+1),
			Type:        dt,
			Description: defaultDescription(description, fmt.Sprintf("CSV row %d from %s", rowNum+1, filename)),
		})
	}
	return docs, nil
}

// parseJSON emits one document per array element, or a single document for
// a top-level object. Object fields render as sorted "key: value" lines.
func parseJSON(filename, text string, dt store.DocType, description string) ([]store.Document, error) {
	var data any
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return nil, dverr.Wrap(err, dverr.CodeIngestPayloadInvalid, "invalid JSON format")
	}

	switch v := data.(type) {
	case []any:
		var docs []store.Document
		for i, item := range v {
			itemText := renderJSONValue(item)
			if utf8.RuneCountInString(strings.TrimSpace(itemText)) < MinContentLength {
				continue
			}
			docs = append(docs, store.Document{
				Content:     itemText,
				Filename:    fmt.Sprintf("%s_item_%d", filename, i+1),
				Type:        dt,
				Description: defaultDescription(description, fmt.Sprintf("JSON item %d from %s", i+1, filename)),
			})
		}
		return docs, nil

	case map[string]any:
		return []store.Document{{
			Content:     renderJSONValue(v),
			Filename:    filename,
			Type:        dt,
			Description: defaultDescription(description, "User uploaded: "+filename),
		}}, nil

	default:
		return nil, dverr.New(dverr.CodeIngestPayloadInvalid,
			"JSON payload must be an object or an array of records")
	}
}

func renderJSONValue(v any) string {
	m, ok := v.(map[string]any)
	if !ok {
		return fmt.Sprint(v)
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %v", k, m[k]))
	}
	return strings.Join(lines, "\n")
}

func parseDocType(raw string) (store.DocType, error) {
	if raw == "" {
		return DefaultDocType, nil
	}
	return store.ParseDocType(raw)
}

func defaultDescription(description, fallback string) string {
	if description != "" {
		return description
	}
	return fallback
}

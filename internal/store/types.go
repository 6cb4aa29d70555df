// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DrugVista Contributors

package store

import (
	dverr "github.com/drugvista/drugvista/pkg/errors"
)

// DocType classifies a corpus document.
type DocType string

const (
	DocTypePaper         DocType = "paper"
	DocTypeClinicalTrial DocType = "clinical_trial"
	DocTypeMarket        DocType = "market"
	DocTypePatientData   DocType = "patient_data"
)

// ParseDocType validates a raw document type string.
func ParseDocType(raw string) (DocType, error) {
	switch DocType(raw) {
	case DocTypePaper, DocTypeClinicalTrial, DocTypeMarket, DocTypePatientData:
		return DocType(raw), nil
	default:
		return "", dverr.Errorf(dverr.CodeIngestDocTypeInvalid, "unknown document type %q", raw)
	}
}

// IsClinical reports whether documents of this type count as clinical
// evidence for the reasoning chain.
func (t DocType) IsClinical() bool {
	return t == DocTypePaper || t == DocTypeClinicalTrial
}

// Document is a single indexed corpus entry. Documents are immutable once
// indexed and are never deleted.
type Document struct {
	ID          string  `json:"id"`
	Content     string  `json:"content"`
	Filename    string  `json:"filename"`
	Type        DocType `json:"type"`
	Description string  `json:"description,omitempty"`
}

// Validate checks the fields required before indexing.
func (d Document) Validate() error {
	if d.Content == "" {
		return dverr.New(dverr.CodeStoreDocumentInvalid, "document content is empty",
			dverr.FieldFilename(d.Filename))
	}
	if d.Filename == "" {
		return dverr.New(dverr.CodeStoreDocumentInvalid, "document filename is empty")
	}
	if _, err := ParseDocType(string(d.Type)); err != nil {
		return dverr.Wrap(err, dverr.CodeStoreDocumentInvalid, "document type",
			dverr.FieldFilename(d.Filename))
	}
	return nil
}

// RetrievalResult is a document plus its cosine similarity to a query.
type RetrievalResult struct {
	Document
	Similarity float64 `json:"similarity_score"`
}

// Stats summarises the index contents. TotalDocuments and IndexSize are
// equal whenever the parallel-storage invariant holds.
type Stats struct {
	TotalDocuments int `json:"total_documents"`
	IndexSize      int `json:"index_size"`
}

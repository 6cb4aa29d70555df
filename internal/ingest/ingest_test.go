// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DrugVista Contributors

package ingest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drugvista/drugvista/internal/embedding"
	"github.com/drugvista/drugvista/internal/store"
	"github.com/drugvista/drugvista/internal/store/sqlite"
	dverr "github.com/drugvista/drugvista/pkg/errors"
)

func newTestService(t *testing.T) (*Service, store.Index) {
	t.Helper()

	embedder := embedding.NewLocal(embedding.DefaultDimensions)
	index, err := sqlite.Open(filepath.Join(t.TempDir(), "index.db"), embedder.Dimensions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	svc, err := New(index, embedder)
	require.NoError(t, err)
	return svc, index
}

func TestParseFile_PlainText(t *testing.T) {
	docs, err := ParseFile("notes.txt", []byte("Patient responded well to treatment over six weeks."), "paper", "")
	require.NoError(t, err)
	require.Len(t, docs, 1)

	assert.Equal(t, "notes.txt", docs[0].Filename)
	assert.Equal(t, store.DocTypePaper, docs[0].Type)
	assert.Equal(t, "User uploaded: notes.txt", docs[0].Description)
}

func TestParseFile_CSVRowPerDocument(t *testing.T) {
	csvData := "drug,outcome,notes\n" +
		"aspirin,positive,reduced inflammation markers\n" +
		"warfarin,negative,bleeding complications observed\n" +
		"metformin,positive,improved glycemic control\n"

	docs, err := ParseFile("trials.csv", []byte(csvData), "clinical_trial", "")
	require.NoError(t, err)
	require.Len(t, docs, 3)

	assert.Equal(t, "trials.csv_row_1", docs[0].Filename)
	assert.Equal(t, "trials.csv_row_2", docs[1].Filename)
	assert.Equal(t, "trials.csv_row_3", docs[2].Filename)
	assert.Equal(t, "drug: aspirin\noutcome: positive\nnotes: reduced inflammation markers", docs[0].Content)
	assert.Equal(t, "CSV row 2 from trials.csv", docs[1].Description)
}

func TestParseFile_CSVSkipsEmptyCellsAndShortRows(t *testing.T) {
	csvData := "drug,outcome\n" +
		"aspirin with long annotation,positive result recorded\n" +
		"x,\n"

	docs, err := ParseFile("trials.csv", []byte(csvData), "clinical_trial", "")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "trials.csv_row_1", docs[0].Filename)
}

func TestParseFile_JSONArray(t *testing.T) {
	jsonData := `[
		{"drug": "aspirin", "status": "approved for cardiovascular use"},
		{"drug": "candidate-x", "status": "phase 2 trials ongoing"}
	]`

	docs, err := ParseFile("pipeline.json", []byte(jsonData), "market", "quarterly export")
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "pipeline.json_item_1", docs[0].Filename)
	assert.Equal(t, "pipeline.json_item_2", docs[1].Filename)
	assert.Equal(t, "drug: aspirin\nstatus: approved for cardiovascular use", docs[0].Content)
	assert.Equal(t, "quarterly export", docs[0].Description)
}

func TestParseFile_JSONObject(t *testing.T) {
	docs, err := ParseFile("report.json", []byte(`{"summary": "market demand growing", "region": "EU"}`), "market", "")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "report.json", docs[0].Filename)
	assert.Equal(t, "region: EU\nsummary: market demand growing", docs[0].Content)
}

func TestParseFile_Rejections(t *testing.T) {
	longEnough := []byte("this content is definitely long enough to pass")

	tests := []struct {
		name     string
		filename string
		content  []byte
		docType  string
		wantCode dverr.Code
	}{
		{name: "unsupported extension", filename: "notes.exe", content: longEnough, docType: "paper", wantCode: dverr.CodeIngestFileUnsupported},
		{name: "pdf not extractable", filename: "study.pdf", content: longEnough, docType: "paper", wantCode: dverr.CodeIngestFileUnsupported},
		{name: "docx not extractable", filename: "study.docx", content: longEnough, docType: "paper", wantCode: dverr.CodeIngestFileUnsupported},
		{name: "invalid utf8", filename: "notes.txt", content: []byte{0xff, 0xfe, 0xfd, 'a', 'b', 'c', 'd', 'e', 'f', 'g', 'h'}, docType: "paper", wantCode: dverr.CodeIngestEncodingInvalid},
		{name: "too short", filename: "notes.txt", content: []byte("short"), docType: "paper", wantCode: dverr.CodeIngestContentTooShort},
		{name: "bad doc type", filename: "notes.txt", content: longEnough, docType: "blog_post", wantCode: dverr.CodeIngestDocTypeInvalid},
		{name: "malformed json", filename: "data.json", content: []byte(`{"unclosed": `), docType: "paper", wantCode: dverr.CodeIngestPayloadInvalid},
		{name: "scalar json", filename: "data.json", content: []byte(`"just a long enough string"`), docType: "paper", wantCode: dverr.CodeIngestPayloadInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFile(tt.filename, tt.content, tt.docType, "")
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, dverr.CodeOf(err))
		})
	}
}

func TestParseFile_DefaultDocType(t *testing.T) {
	docs, err := ParseFile("notes.txt", []byte("content long enough for ingestion"), "", "")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, store.DocTypePatientData, docs[0].Type)
}

func TestIngestFile(t *testing.T) {
	svc, index := newTestService(t)

	added, err := svc.IngestFile(context.Background(), "notes.txt",
		[]byte("Patient cohort showed improved outcomes."), "patient_data", "")
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	stats, err := index.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalDocuments)
}

func TestIngestText(t *testing.T) {
	svc, index := newTestService(t)

	added, err := svc.IngestText(context.Background(),
		"Observed mild adverse effects in the second cohort.", "patient_data", "cohort notes")
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	stats, err := index.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalDocuments)
}

func TestIngestText_TooShort(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.IngestText(context.Background(), "   tiny   ", "patient_data", "")
	require.Error(t, err)
	assert.Equal(t, dverr.CodeIngestContentTooShort, dverr.CodeOf(err))
}

func TestIngestText_DefaultTitle(t *testing.T) {
	svc, _ := newTestService(t)

	added, err := svc.IngestText(context.Background(),
		"Long enough content for the text ingest path.", "", "")
	require.NoError(t, err)
	assert.Equal(t, 1, added)
}

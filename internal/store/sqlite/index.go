// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DrugVista Contributors

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sort"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/drugvista/drugvista/internal/store"
	dverr "github.com/drugvista/drugvista/pkg/errors"
)

func init() {
	sqlite_vec.Auto()
}

// Compile-time interface check.
var _ store.Index = (*Index)(nil)

// Index implements store.Index backed by SQLite with sqlite-vec. Vectors
// live in a vec0 virtual table keyed by document ID; document text and
// metadata live in a companion table whose AUTOINCREMENT sequence records
// insertion order for stable tie-breaking.
type Index struct {
	db         *sql.DB
	dimensions int
}

// Open opens (or creates) the index database at dbPath. A database that
// cannot be opened or migrated is moved aside and replaced with a fresh
// empty index: a damaged corpus degrades to an empty store rather than
// preventing startup.
func Open(dbPath string, dimensions int) (*Index, error) {
	if dimensions <= 0 {
		return nil, dverr.Errorf(dverr.CodeConfigValidateInvalidValue,
			"embedding dimensions must be positive, got %d", dimensions)
	}

	idx, err := open(dbPath, dimensions)
	if err == nil {
		return idx, nil
	}
	if dbPath == ":memory:" {
		return nil, err
	}

	// Salvage path: preserve the unreadable file for inspection, start empty.
	aside := dbPath + ".corrupt"
	slog.Warn("index unreadable, reinitializing empty store",
		"path", dbPath, "moved_to", aside, "error", err)
	if renameErr := os.Rename(dbPath, aside); renameErr != nil {
		return nil, dverr.Wrapf(err, dverr.CodeStoreIndexOpenFailure,
			"opening index %s (could not move damaged file aside)", dbPath)
	}

	return open(dbPath, dimensions)
}

func open(dbPath string, dimensions int) (*Index, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, dverr.Wrapf(err, dverr.CodeStoreIndexOpenFailure, "opening sqlite db %s", dbPath)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, dverr.Wrapf(err, dverr.CodeStoreIndexOpenFailure, "pinging sqlite db %s", dbPath)
	}

	if err := migrate(db, dimensions); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Index{db: db, dimensions: dimensions}, nil
}

func migrate(db *sql.DB, dimensions int) error {
	vecDDL := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS document_vectors USING vec0(id TEXT PRIMARY KEY, embedding float[%d] distance_metric=cosine)`,
		dimensions,
	)
	if _, err := db.Exec(vecDDL); err != nil {
		return dverr.Wrap(err, dverr.CodeStoreIndexMigrateFailure, "creating document_vectors virtual table")
	}

	const docDDL = `
CREATE TABLE IF NOT EXISTS documents (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	id          TEXT NOT NULL UNIQUE,
	content     TEXT NOT NULL,
	filename    TEXT NOT NULL,
	doc_type    TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at  TEXT NOT NULL DEFAULT (datetime('now'))
)`
	if _, err := db.Exec(docDDL); err != nil {
		return dverr.Wrap(err, dverr.CodeStoreIndexMigrateFailure, "creating documents table")
	}

	return nil
}

// Add appends documents and their vectors transactionally. The invariant
// len(vectors) == len(docs) is checked up front; a failed transaction
// leaves both tables untouched.
func (x *Index) Add(ctx context.Context, docs []store.Document, vectors [][]float32) error {
	if len(docs) == 0 && len(vectors) == 0 {
		return nil
	}
	if len(docs) != len(vectors) {
		return dverr.Errorf(dverr.CodeStoreDocumentInvalid,
			"documents and vectors out of step: %d documents, %d vectors", len(docs), len(vectors))
	}

	for i, doc := range docs {
		if err := doc.Validate(); err != nil {
			return err
		}
		if len(vectors[i]) != x.dimensions {
			return dverr.New(dverr.CodeStoreDocumentInvalid,
				fmt.Sprintf("vector dimension %d does not match index dimension %d", len(vectors[i]), x.dimensions),
				dverr.FieldFilename(doc.Filename))
		}
	}

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return dverr.Wrap(err, dverr.CodeStoreDatabaseFailure, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	for i, doc := range docs {
		if doc.ID == "" {
			doc.ID = uuid.NewString()
		}

		const docQ = `INSERT INTO documents(id, content, filename, doc_type, description) VALUES (?, ?, ?, ?, ?)`
		if _, err := tx.ExecContext(ctx, docQ, doc.ID, doc.Content, doc.Filename, string(doc.Type), doc.Description); err != nil {
			return dverr.Wrap(err, dverr.CodeStoreDatabaseFailure, "inserting document",
				dverr.FieldFilename(doc.Filename))
		}

		blob, err := sqlite_vec.SerializeFloat32(vectors[i])
		if err != nil {
			return dverr.Wrap(err, dverr.CodeStoreDatabaseFailure, "serializing embedding",
				dverr.FieldFilename(doc.Filename))
		}

		if _, err := tx.ExecContext(ctx, `INSERT INTO document_vectors(id, embedding) VALUES (?, ?)`, doc.ID, blob); err != nil {
			return dverr.Wrap(err, dverr.CodeStoreDatabaseFailure, "inserting vector",
				dverr.FieldFilename(doc.Filename))
		}
	}

	if err := tx.Commit(); err != nil {
		return dverr.Wrap(err, dverr.CodeStoreDatabaseFailure, "committing document batch")
	}
	return nil
}

// Search performs a k-nearest-neighbor query. Results carry cosine
// similarity (1 - cosine distance) and are sorted by descending similarity
// with insertion order breaking ties.
func (x *Index) Search(ctx context.Context, vector []float32, k int) ([]store.RetrievalResult, error) {
	if k <= 0 {
		return nil, nil
	}
	if len(vector) != x.dimensions {
		return nil, dverr.Errorf(dverr.CodeStoreSearchFailure,
			"query vector dimension %d does not match index dimension %d", len(vector), x.dimensions)
	}

	var count int
	if err := x.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM document_vectors`).Scan(&count); err != nil {
		return nil, dverr.Wrap(err, dverr.CodeStoreSearchFailure, "counting vectors")
	}
	if count == 0 {
		return nil, nil
	}

	blob, err := sqlite_vec.SerializeFloat32(vector)
	if err != nil {
		return nil, dverr.Wrap(err, dverr.CodeStoreSearchFailure, "serializing query vector")
	}

	const q = `SELECT v.distance, d.seq, d.id, d.content, d.filename, d.doc_type, d.description
FROM document_vectors v
JOIN documents d ON d.id = v.id
WHERE v.embedding MATCH ? AND k = ?
ORDER BY v.distance`

	rows, err := x.db.QueryContext(ctx, q, blob, k)
	if err != nil {
		return nil, dverr.Wrap(err, dverr.CodeStoreSearchFailure, "searching vectors")
	}
	defer func() { _ = rows.Close() }()

	type seqResult struct {
		store.RetrievalResult
		seq int64
	}

	var results []seqResult
	for rows.Next() {
		var (
			r        seqResult
			distance float64
			docType  string
		)
		if err := rows.Scan(&distance, &r.seq, &r.ID, &r.Content, &r.Filename, &docType, &r.Description); err != nil {
			return nil, dverr.Wrap(err, dverr.CodeStoreSearchFailure, "scanning search result")
		}
		r.Type = store.DocType(docType)
		r.Similarity = 1 - distance
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, dverr.Wrap(err, dverr.CodeStoreSearchFailure, "iterating search results")
	}

	// vec0 orders by distance only; equal distances must fall back to
	// insertion order for deterministic results.
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].seq < results[j].seq
	})

	out := make([]store.RetrievalResult, len(results))
	for i, r := range results {
		out[i] = r.RetrievalResult
	}
	return out, nil
}

// Stats reports document and vector counts.
func (x *Index) Stats(ctx context.Context) (store.Stats, error) {
	var s store.Stats
	if err := x.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&s.TotalDocuments); err != nil {
		return store.Stats{}, dverr.Wrap(err, dverr.CodeStoreDatabaseFailure, "counting documents")
	}
	if err := x.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM document_vectors`).Scan(&s.IndexSize); err != nil {
		return store.Stats{}, dverr.Wrap(err, dverr.CodeStoreDatabaseFailure, "counting vectors")
	}
	return s, nil
}

// Close closes the underlying database connection.
func (x *Index) Close() error {
	return x.db.Close()
}

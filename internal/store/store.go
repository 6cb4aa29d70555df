// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DrugVista Contributors

package store

import "context"

// Index persists documents and their embedding vectors together and serves
// nearest-neighbor queries. Implementations are append-only: documents are
// never updated or deleted once added.
type Index interface {
	// Add appends documents and their unit-normalized embedding vectors.
	// The two slices are parallel and must have equal length. An empty
	// input is a no-op.
	Add(ctx context.Context, docs []Document, vectors [][]float32) error

	// Search returns the min(k, count) documents nearest to the query
	// vector, sorted by descending cosine similarity with ties broken by
	// insertion order. An empty index returns an empty result.
	Search(ctx context.Context, vector []float32, k int) ([]RetrievalResult, error)

	// Stats reports the current index contents.
	Stats(ctx context.Context) (Stats, error)

	Close() error
}

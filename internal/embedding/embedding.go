// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DrugVista Contributors

// Package embedding maps text to fixed-length unit-normalized vectors.
// Two implementations exist: an OpenAI-backed embedder for production use
// and a deterministic local token-hash embedder for offline operation.
package embedding

import (
	"context"
	"math"
)

// DefaultDimensions is the embedding width used across the index, chosen to
// match the corpus the service ships with.
const DefaultDimensions = 384

// Embedder converts text into unit-normalized embedding vectors. Embed
// returns one vector per input text, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Model() string
}

// normalize scales v to unit L2 norm in place. A zero vector is left
// untouched.
func normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := 1 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
}

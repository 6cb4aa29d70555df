// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DrugVista Contributors

package embedding

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"
)

// Local is a deterministic token-hash embedder used when no embedding
// provider is configured. Each lowercased token is hashed into one of the
// vector's buckets with a hash-derived sign, and the result is
// unit-normalized. Identical texts always produce identical vectors, and
// texts sharing vocabulary land near each other, which is sufficient for
// the small corpora this service targets.
type Local struct {
	dimensions int
}

var _ Embedder = (*Local)(nil)

// NewLocal creates a local embedder with the given vector width.
func NewLocal(dimensions int) *Local {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &Local{dimensions: dimensions}
}

func (l *Local) Dimensions() int { return l.dimensions }
func (l *Local) Model() string   { return "local-token-hash" }

func (l *Local) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = l.embedOne(text)
	}
	return out, nil
}

func (l *Local) embedOne(text string) []float32 {
	vec := make([]float32, l.dimensions)

	for _, token := range tokenize(text) {
		h := fnv.New64a()
		_, _ = h.Write([]byte(token))
		sum := h.Sum64()

		bucket := int(sum % uint64(l.dimensions))
		// Signed hashing: a second hash bit decides the direction so
		// colliding tokens partially cancel instead of always piling up.
		if (sum>>32)&1 == 1 {
			vec[bucket]++
		} else {
			vec[bucket]--
		}
	}

	normalize(vec)
	return vec
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DrugVista Contributors

// Package pipeline implements the retrieval-augmented analysis pipeline:
// embed the query, retrieve similar documents, run a four-step reasoning
// chain over them, and map the free-text analyses to a structured
// AnalysisRecord with a heuristic keyword scorer. When retrieval finds no
// relevant documents the pipeline falls back to a single low-confidence
// general-knowledge call.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/drugvista/drugvista/internal/embedding"
	"github.com/drugvista/drugvista/internal/provider"
	"github.com/drugvista/drugvista/internal/store"
	dverr "github.com/drugvista/drugvista/pkg/errors"
)

const (
	// DefaultTopK is how many documents retrieval fetches per query.
	DefaultTopK = 5

	// DefaultRelevanceThreshold gates the fallback path: a query needs at
	// least one document above this similarity to use the reasoning chain.
	DefaultRelevanceThreshold = 0.3

	// MinQueryLength applies after whitespace trimming.
	MinQueryLength = 3
)

// Options tunes retrieval behavior. Zero values select the defaults.
type Options struct {
	TopK               int
	RelevanceThreshold float64
}

// Pipeline orchestrates retrieval, the reasoning chain, and scoring.
// Processing is synchronous and request-scoped; the pipeline holds no
// per-query state.
type Pipeline struct {
	index     store.Index
	embedder  embedding.Embedder
	registry  *provider.Registry
	topK      int
	threshold float64
}

// New creates a Pipeline. All three dependencies are required; an empty
// registry is allowed and puts the pipeline into offline keyword mode.
func New(index store.Index, embedder embedding.Embedder, registry *provider.Registry, opts Options) (*Pipeline, error) {
	if index == nil {
		return nil, dverr.New(dverr.CodeConfigValidateInvalidValue, "pipeline: index is required")
	}
	if embedder == nil {
		return nil, dverr.New(dverr.CodeConfigValidateInvalidValue, "pipeline: embedder is required")
	}
	if registry == nil {
		return nil, dverr.New(dverr.CodeConfigValidateInvalidValue, "pipeline: provider registry is required")
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	threshold := opts.RelevanceThreshold
	if threshold <= 0 {
		threshold = DefaultRelevanceThreshold
	}

	return &Pipeline{
		index:     index,
		embedder:  embedder,
		registry:  registry,
		topK:      topK,
		threshold: threshold,
	}, nil
}

// Analyze runs the full pipeline for one query. Apart from query
// validation, every failure mode produces a well-formed AnalysisRecord
// rather than an error: generation failures degrade per step, and
// unexpected errors become the universal Manual Review Required record.
func (p *Pipeline) Analyze(ctx context.Context, query string) (record AnalysisRecord, err error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinQueryLength {
		return AnalysisRecord{}, dverr.Errorf(dverr.CodePipelineQueryInvalid,
			"query must be at least %d characters", MinQueryLength)
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("analysis pipeline panicked", "panic", r, "query", truncate(query, 50))
			record = errorRecord(fmt.Errorf("%v", r))
			err = nil
		}
	}()

	vectors, embedErr := p.embedder.Embed(ctx, []string{query})
	if embedErr != nil {
		slog.Error("query embedding failed", "error", embedErr)
		return errorRecord(embedErr), nil
	}
	if len(vectors) != 1 {
		return errorRecord(fmt.Errorf("embedding returned %d vectors for 1 input", len(vectors))), nil
	}

	results, searchErr := p.index.Search(ctx, vectors[0], p.topK)
	if searchErr != nil {
		slog.Error("retrieval failed", "error", searchErr)
		return errorRecord(searchErr), nil
	}

	relevant := results[:0:0]
	for _, r := range results {
		if r.Similarity > p.threshold {
			relevant = append(relevant, r)
		}
	}

	if len(relevant) == 0 {
		slog.Info("no relevant documents, using general knowledge",
			"query", truncate(query, 50), "retrieved", len(results))
		if p.registry.Empty() {
			return offlineGeneralRecord(query), nil
		}
		return p.generalInsights(ctx, query), nil
	}

	if p.registry.Empty() {
		return p.analyzeOffline(query, relevant), nil
	}
	return p.analyzeWithChain(ctx, query, relevant), nil
}

// analyzeWithChain runs the four reasoning steps sequentially and scores
// the resulting texts.
func (p *Pipeline) analyzeWithChain(ctx context.Context, query string, relevant []store.RetrievalResult) AnalysisRecord {
	cr := p.analyzeContext(ctx, query, relevant)
	cl := p.analyzeClinical(ctx, query, relevant, cr)
	mk := p.analyzeMarket(ctx, query, relevant, cr)
	decision := p.synthesizeDecision(ctx, query, cr, cl, mk)

	return score(scoreInput{
		Query:             query,
		ClinicalText:      cl.analysis,
		MarketText:        mk.analysis,
		DecisionText:      decision,
		DocsUsed:          cr.docsUsed,
		EvidenceCount:     cl.evidenceCount,
		Results:           relevant,
		FromKnowledgeBase: true,
	})
}

// analyzeOffline scores the raw retrieved text directly when no generation
// provider is configured. All keyword tables run over one combined text of
// every relevant document, regardless of document type; everything else is
// unchanged.
func (p *Pipeline) analyzeOffline(query string, relevant []store.RetrievalResult) AnalysisRecord {
	var combined strings.Builder
	evidenceCount := 0
	for _, r := range relevant {
		combined.WriteString(r.Content)
		combined.WriteString("\n")
		if r.Type.IsClinical() {
			evidenceCount++
		}
	}
	text := combined.String()

	return score(scoreInput{
		Query:             query,
		ClinicalText:      text,
		MarketText:        text,
		DecisionText:      "Offline keyword analysis of retrieved documents",
		DocsUsed:          len(relevant),
		EvidenceCount:     evidenceCount,
		Results:           relevant,
		FromKnowledgeBase: true,
	})
}

// complete resolves the default generator and issues one completion.
func (p *Pipeline) complete(ctx context.Context, prompt string, temperature float32) (string, error) {
	g, model, err := p.registry.Resolve("")
	if err != nil {
		return "", err
	}
	return g.Complete(ctx, provider.CompletionRequest{
		Model:       model,
		Prompt:      prompt,
		Temperature: temperature,
	})
}

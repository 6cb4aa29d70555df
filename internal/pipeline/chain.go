// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DrugVista Contributors

package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/drugvista/drugvista/internal/store"
)

// Per-step sampling temperatures. Later steps run cooler: synthesis should
// be the most deterministic.
const (
	contextTemperature   = 0.3
	clinicalTemperature  = 0.2
	marketTemperature    = 0.2
	synthesisTemperature = 0.1
)

// Document excerpts are truncated before interpolation to bound prompt size.
const (
	contextExcerptLimit  = 500
	evidenceExcerptLimit = 300
)

type contextResult struct {
	analysis string
	docsUsed int
}

type clinicalResult struct {
	analysis      string
	evidenceCount int
}

type marketResult struct {
	analysis   string
	marketDocs int
}

// analyzeContext runs the context-understanding step over all relevant
// documents. On generation failure it degrades to a placeholder with
// docsUsed=0, which later lowers the confidence score.
func (p *Pipeline) analyzeContext(ctx context.Context, query string, docs []store.RetrievalResult) contextResult {
	var sb strings.Builder
	for i, doc := range docs {
		fmt.Fprintf(&sb, "Doc %d: %s\n", i+1, truncate(doc.Content, contextExcerptLimit))
	}

	content, err := p.complete(ctx, contextPrompt(query, strings.TrimSuffix(sb.String(), "\n")), contextTemperature)
	if err != nil {
		slog.Warn("context analysis failed", "error", err)
		return contextResult{analysis: "Basic analysis of query: " + query, docsUsed: 0}
	}
	return contextResult{analysis: content, docsUsed: len(docs)}
}

// analyzeClinical runs the clinical-reasoning step over paper and
// clinical_trial documents only.
func (p *Pipeline) analyzeClinical(ctx context.Context, query string, docs []store.RetrievalResult, cr contextResult) clinicalResult {
	var clinical []store.RetrievalResult
	for _, doc := range docs {
		if doc.Type.IsClinical() {
			clinical = append(clinical, doc)
		}
	}

	var sb strings.Builder
	for _, doc := range clinical {
		fmt.Fprintf(&sb, "- %s\n", truncate(doc.Content, evidenceExcerptLimit))
	}

	prompt := clinicalPrompt(query, cr.analysis, strings.TrimSuffix(sb.String(), "\n"))
	content, err := p.complete(ctx, prompt, clinicalTemperature)
	if err != nil {
		slog.Warn("clinical analysis failed", "error", err)
		return clinicalResult{analysis: "Clinical analysis unavailable", evidenceCount: 0}
	}
	return clinicalResult{analysis: content, evidenceCount: len(clinical)}
}

// analyzeMarket runs the market-intelligence step over market documents only.
func (p *Pipeline) analyzeMarket(ctx context.Context, query string, docs []store.RetrievalResult, cr contextResult) marketResult {
	var market []store.RetrievalResult
	for _, doc := range docs {
		if doc.Type == store.DocTypeMarket {
			market = append(market, doc)
		}
	}

	var sb strings.Builder
	for _, doc := range market {
		fmt.Fprintf(&sb, "- %s\n", truncate(doc.Content, evidenceExcerptLimit))
	}

	prompt := marketPrompt(query, cr.analysis, strings.TrimSuffix(sb.String(), "\n"))
	content, err := p.complete(ctx, prompt, marketTemperature)
	if err != nil {
		slog.Warn("market analysis failed", "error", err)
		return marketResult{analysis: "Market analysis unavailable", marketDocs: 0}
	}
	return marketResult{analysis: content, marketDocs: len(market)}
}

// synthesizeDecision runs the final synthesis step over the three analyses.
func (p *Pipeline) synthesizeDecision(ctx context.Context, query string, cr contextResult, cl clinicalResult, mk marketResult) string {
	prompt := synthesisPrompt(query, cr.analysis, cl.analysis, mk.analysis)
	content, err := p.complete(ctx, prompt, synthesisTemperature)
	if err != nil {
		slog.Warn("decision synthesis failed", "error", err)
		return "Decision synthesis unavailable"
	}
	return content
}

// truncate bounds s to at most limit runes without splitting a multi-byte
// character.
func truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

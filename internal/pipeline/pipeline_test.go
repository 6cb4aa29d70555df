// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DrugVista Contributors

package pipeline_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drugvista/drugvista/internal/embedding"
	"github.com/drugvista/drugvista/internal/pipeline"
	"github.com/drugvista/drugvista/internal/provider"
	"github.com/drugvista/drugvista/internal/store"
	"github.com/drugvista/drugvista/internal/store/sqlite"
	dverr "github.com/drugvista/drugvista/pkg/errors"
)

// scriptedGenerator answers each reasoning step with a canned response
// keyed on a marker in the prompt text.
type scriptedGenerator struct {
	responses map[string]string // prompt marker -> response
	fail      bool
	calls     []string
}

func (s *scriptedGenerator) Name() string                   { return "scripted" }
func (s *scriptedGenerator) Available(context.Context) bool { return true }
func (s *scriptedGenerator) Close() error                   { return nil }

func (s *scriptedGenerator) Complete(_ context.Context, req provider.CompletionRequest) (string, error) {
	s.calls = append(s.calls, req.Prompt)
	if s.fail {
		return "", dverr.New(dverr.CodeProviderUpstreamFailure, "scripted failure")
	}
	// Prefer the most specific (longest) matching marker so that
	// "CLINICAL ANALYSIS:" wins over "ANALYSIS:" regardless of map order.
	var best string
	found := false
	for marker := range s.responses {
		if strings.Contains(req.Prompt, marker) && (!found || len(marker) > len(best)) {
			best, found = marker, true
		}
	}
	if found {
		return s.responses[best], nil
	}
	return "no scripted response", nil
}

func newTestPipeline(t *testing.T, gen *scriptedGenerator) (*pipeline.Pipeline, store.Index, embedding.Embedder) {
	t.Helper()

	embedder := embedding.NewLocal(embedding.DefaultDimensions)

	index, err := sqlite.Open(filepath.Join(t.TempDir(), "index.db"), embedder.Dimensions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	var registry *provider.Registry
	if gen != nil {
		registry, err = provider.NewRegistry("scripted/test-model")
		require.NoError(t, err)
		require.NoError(t, registry.Register(gen))
	} else {
		registry, err = provider.NewRegistry("")
		require.NoError(t, err)
	}

	p, err := pipeline.New(index, embedder, registry, pipeline.Options{})
	require.NoError(t, err)
	return p, index, embedder
}

func seed(t *testing.T, index store.Index, embedder embedding.Embedder, docs ...store.Document) {
	t.Helper()
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}
	vectors, err := embedder.Embed(context.Background(), texts)
	require.NoError(t, err)
	require.NoError(t, index.Add(context.Background(), docs, vectors))
}

func TestAnalyze_KnowledgeBasePath(t *testing.T) {
	gen := &scriptedGenerator{responses: map[string]string{
		"ANALYSIS:":          "Query concerns aspirin cardiovascular trial outcomes.",
		"CLINICAL ANALYSIS:": "The trial data is promising and the compound appears effective.",
		"MARKET ANALYSIS:":   "Growing demand in a multi-billion dollar cardiovascular market.",
		"DECISION SYNTHESIS": "Evidence supports advancing the program.",
	}}
	p, index, embedder := newTestPipeline(t, gen)

	seed(t, index, embedder,
		store.Document{
			Content:  "aspirin cardiovascular trial outcomes in elderly patients",
			Filename: "aspirin_trial.txt",
			Type:     store.DocTypeClinicalTrial,
		},
		store.Document{
			Content:  "aspirin cardiovascular trial mechanism and dosing study",
			Filename: "aspirin_paper.txt",
			Type:     store.DocTypePaper,
		},
		store.Document{
			Content:  "aspirin cardiovascular market size and trial pipeline",
			Filename: "aspirin_market.txt",
			Type:     store.DocTypeMarket,
		},
	)

	rec, err := p.Analyze(context.Background(), "aspirin cardiovascular trial outcomes")
	require.NoError(t, err)

	assert.Equal(t, pipeline.ViabilityHigh, rec.ClinicalViability)
	assert.Equal(t, pipeline.MarketStrong, rec.MarketSignal)
	assert.Equal(t, pipeline.RecommendProceed, rec.Recommendation)
	assert.Len(t, gen.calls, 4)
	assert.Len(t, rec.KeyEvidence, 3)
	assert.Contains(t, rec.Explanation, "Based on internal knowledge base")

	// 0.5 base + 0.2 for three context docs + 0.2 for two clinical docs,
	// plus 0.1 if the retrieval scored above 0.5 on average.
	assert.GreaterOrEqual(t, rec.ConfidenceScore, 0.9)
	assert.LessOrEqual(t, rec.ConfidenceScore, 1.0)
}

func TestAnalyze_FallbackPath(t *testing.T) {
	gen := &scriptedGenerator{responses: map[string]string{
		"NOT in our internal knowledge base": "General knowledge: demand is growing but risks exist.",
	}}
	p, index, embedder := newTestPipeline(t, gen)

	seed(t, index, embedder, store.Document{
		Content:  "aspirin cardiovascular outcomes",
		Filename: "aspirin.txt",
		Type:     store.DocTypePaper,
	})

	rec, err := p.Analyze(context.Background(), "quantum chromodynamics lattice simulation")
	require.NoError(t, err)

	assert.Equal(t, 0.25, rec.ConfidenceScore)
	assert.Equal(t, pipeline.RecommendInvestigate, rec.Recommendation)
	require.Len(t, rec.KeyEvidence, 1)
	assert.Contains(t, rec.KeyEvidence[0], "general AI knowledge")
	assert.Len(t, gen.calls, 1)
}

func TestAnalyze_FallbackOnEmptyStore(t *testing.T) {
	gen := &scriptedGenerator{responses: map[string]string{}}
	p, _, _ := newTestPipeline(t, gen)

	rec, err := p.Analyze(context.Background(), "any query at all")
	require.NoError(t, err)
	assert.Equal(t, 0.25, rec.ConfidenceScore)
	assert.Equal(t, pipeline.RecommendInvestigate, rec.Recommendation)
}

func TestAnalyze_QueryTooShort(t *testing.T) {
	p, _, _ := newTestPipeline(t, &scriptedGenerator{})

	for _, query := range []string{"", "ab", "  a  "} {
		_, err := p.Analyze(context.Background(), query)
		require.Error(t, err, "query %q", query)
		assert.True(t, dverr.IsInvalidInput(err))
	}
}

func TestAnalyze_StepFailuresDegrade(t *testing.T) {
	gen := &scriptedGenerator{fail: true}
	p, index, embedder := newTestPipeline(t, gen)

	seed(t, index, embedder, store.Document{
		Content:  "aspirin cardiovascular trial outcomes",
		Filename: "aspirin.txt",
		Type:     store.DocTypeClinicalTrial,
	})

	rec, err := p.Analyze(context.Background(), "aspirin cardiovascular trial outcomes")
	require.NoError(t, err)

	// Every step degraded to its placeholder; the context failure zeroes
	// docs_used, which caps confidence at 0.3.
	assert.Equal(t, pipeline.ViabilityMedium, rec.ClinicalViability)
	assert.Equal(t, pipeline.MarketModerate, rec.MarketSignal)
	assert.Equal(t, pipeline.RecommendInvestigate, rec.Recommendation)
	assert.Equal(t, 0.3, rec.ConfidenceScore)
	assert.Len(t, gen.calls, 4)
}

func TestAnalyze_GeneralInsightsFailureReturnsErrorRecord(t *testing.T) {
	gen := &scriptedGenerator{fail: true}
	p, _, _ := newTestPipeline(t, gen)

	rec, err := p.Analyze(context.Background(), "unrelated obscure topic")
	require.NoError(t, err)

	assert.Equal(t, pipeline.RecommendManualReview, rec.Recommendation)
	assert.Equal(t, 0.0, rec.ConfidenceScore)
	assert.Contains(t, rec.Explanation, "Analysis failed")
}

func TestAnalyze_OfflineMode(t *testing.T) {
	p, index, embedder := newTestPipeline(t, nil)

	seed(t, index, embedder, store.Document{
		Content:  "the aspirin trial failed due to severe bleeding and toxicity",
		Filename: "failed_trial.txt",
		Type:     store.DocTypeClinicalTrial,
	})

	rec, err := p.Analyze(context.Background(), "aspirin trial failed bleeding toxicity")
	require.NoError(t, err)

	assert.Equal(t, pipeline.ViabilityLow, rec.ClinicalViability)
	assert.Equal(t, pipeline.RecommendDrop, rec.Recommendation)
	assert.Contains(t, rec.MajorRisks, "toxicity concerns")
	assert.Contains(t, rec.MajorRisks, "bleeding risk")
	assert.Contains(t, rec.MajorRisks, "trial failure history")
	assert.Equal(t, []string{"failed_trial.txt"}, rec.KeyEvidence)
}

func TestAnalyze_OfflineModeCombinesDocumentText(t *testing.T) {
	p, index, embedder := newTestPipeline(t, nil)

	// Clinical keywords live in a market-typed document; the offline
	// scorer runs every table over one combined text, so they still count.
	seed(t, index, embedder, store.Document{
		Content:  "billion dollar demand, therapy proved effective and successful",
		Filename: "market_outlook.txt",
		Type:     store.DocTypeMarket,
	})

	rec, err := p.Analyze(context.Background(), "effective successful billion demand therapy")
	require.NoError(t, err)

	assert.Equal(t, pipeline.ViabilityHigh, rec.ClinicalViability)
	assert.Equal(t, pipeline.MarketStrong, rec.MarketSignal)
	assert.Equal(t, pipeline.RecommendProceed, rec.Recommendation)
}

func TestAnalyze_OfflineModeNoRelevantDocs(t *testing.T) {
	p, _, _ := newTestPipeline(t, nil)

	rec, err := p.Analyze(context.Background(), "completely unrelated query")
	require.NoError(t, err)

	assert.Equal(t, 0.25, rec.ConfidenceScore)
	assert.Equal(t, pipeline.RecommendInvestigate, rec.Recommendation)
	assert.Equal(t, pipeline.ViabilityUnknown, rec.ClinicalViability)
}

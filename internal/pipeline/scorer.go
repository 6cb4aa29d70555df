// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DrugVista Contributors

package pipeline

import (
	"fmt"
	"math"
	"strings"

	"github.com/drugvista/drugvista/internal/store"
)

// Keyword lists for the heuristic scorer. Matching is case-insensitive
// substring presence. This is a deliberate approximation, brittle to
// phrasing; treat the lists as fixed behavior, not tunables.
var (
	viabilityHighKeywords = []string{"promising", "effective", "successful", "approved"}
	viabilityLowKeywords  = []string{"failed", "ineffective", "toxic", "discontinued"}

	marketStrongKeywords = []string{"billion", "growing", "strong", "demand"}
	marketWeakKeywords   = []string{"declining", "weak", "saturated"}
)

// evidenceLimit caps how many retrieved filenames appear in key_evidence.
const evidenceLimit = 3

// scoreInput carries everything the heuristic scorer needs to build an
// AnalysisRecord from free-text analyses.
type scoreInput struct {
	Query             string
	ClinicalText      string
	MarketText        string
	DecisionText      string
	DocsUsed          int
	EvidenceCount     int
	Results           []store.RetrievalResult
	FromKnowledgeBase bool
}

// score is the pure mapping from free-text analyses to the structured
// record. The High check runs before the Low check, and Strong before Weak,
// so text matching both lists resolves in favor of the first.
func score(in scoreInput) AnalysisRecord {
	viability := classifyViability(in.ClinicalText)
	risks := classifyRisks(in.ClinicalText)
	market := classifyMarket(in.MarketText)
	recommendation := recommend(viability, market)
	confidence := confidenceScore(in.DocsUsed, in.EvidenceCount, in.Results)

	evidence := make([]string, 0, evidenceLimit)
	for i, r := range in.Results {
		if i >= evidenceLimit {
			break
		}
		filename := r.Filename
		if filename == "" {
			filename = fmt.Sprintf("doc_%d", i)
		}
		evidence = append(evidence, filename)
	}

	return AnalysisRecord{
		ClinicalViability: viability,
		KeyEvidence:       evidence,
		MajorRisks:        risks,
		MarketSignal:      market,
		Recommendation:    recommendation,
		ConfidenceScore:   confidence,
		Explanation:       formatExplanation(in, confidence),
	}
}

func classifyViability(clinicalText string) Viability {
	text := strings.ToLower(clinicalText)
	if containsAny(text, viabilityHighKeywords) {
		return ViabilityHigh
	}
	if containsAny(text, viabilityLowKeywords) {
		return ViabilityLow
	}
	return ViabilityMedium
}

func classifyRisks(clinicalText string) []string {
	text := strings.ToLower(clinicalText)

	var risks []string
	if strings.Contains(text, "toxicity") {
		risks = append(risks, "toxicity concerns")
	}
	if strings.Contains(text, "side effect") || strings.Contains(text, "adverse") {
		risks = append(risks, "adverse effects")
	}
	if strings.Contains(text, "trial") && strings.Contains(text, "fail") {
		risks = append(risks, "trial failure history")
	}
	if strings.Contains(text, "bleeding") {
		risks = append(risks, "bleeding risk")
	}
	if len(risks) == 0 {
		risks = []string{"standard development risks"}
	}
	return risks
}

func classifyMarket(marketText string) MarketSignal {
	text := strings.ToLower(marketText)
	if containsAny(text, marketStrongKeywords) {
		return MarketStrong
	}
	if containsAny(text, marketWeakKeywords) {
		return MarketWeak
	}
	return MarketModerate
}

// recommend is Proceed only on the High/Strong combination; any Low or Weak
// grade drops the candidate.
func recommend(v Viability, m MarketSignal) Recommendation {
	if v == ViabilityHigh && m == MarketStrong {
		return RecommendProceed
	}
	if v == ViabilityLow || m == MarketWeak {
		return RecommendDrop
	}
	return RecommendInvestigate
}

// confidenceScore builds the score from document usage: 0.5 base when the
// context step used documents (0.3 otherwise), +0.2 for three or more
// context documents, +0.2 for two or more clinical evidence documents,
// +0.1 when the mean retrieval similarity exceeds 0.5. Clamped to [0,1]
// and rounded to 2 decimals.
func confidenceScore(docsUsed, evidenceCount int, results []store.RetrievalResult) float64 {
	if docsUsed == 0 {
		return 0.3
	}

	confidence := 0.5
	if docsUsed >= 3 {
		confidence += 0.2
	}
	if evidenceCount >= 2 {
		confidence += 0.2
	}
	if len(results) > 0 {
		var sum float64
		for _, r := range results {
			sum += r.Similarity
		}
		if sum/float64(len(results)) > 0.5 {
			confidence += 0.1
		}
	}

	if confidence > 1.0 {
		confidence = 1.0
	}
	if confidence < 0 {
		confidence = 0
	}
	return math.Round(confidence*100) / 100
}

func formatExplanation(in scoreInput, confidence float64) string {
	source := "Based on internal knowledge base"
	if !in.FromKnowledgeBase {
		source = "Based on general AI knowledge"
	}

	return fmt.Sprintf(`**Query Analysis**: %s

**Clinical Assessment**: %s...

**Market Intelligence**: %s...

**Final Decision**: %s...

**Evidence Base**: %d documents analyzed.
**Confidence**: %s (%.0f%%) - %s`,
		in.Query,
		truncate(in.ClinicalText, 200),
		truncate(in.MarketText, 200),
		truncate(in.DecisionText, 200),
		len(in.Results),
		confidenceLabel(confidence),
		confidence*100,
		source,
	)
}

func confidenceLabel(confidence float64) string {
	switch {
	case confidence >= 0.7:
		return "HIGH"
	case confidence >= 0.5:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

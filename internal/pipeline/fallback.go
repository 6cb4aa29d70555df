// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DrugVista Contributors

package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

const (
	generalTemperature = 0.4

	// generalConfidence is fixed for the fallback path: answers built
	// without corpus evidence never claim more.
	generalConfidence = 0.25

	generalEvidenceDisclaimer = "⚠️ Based on general AI knowledge (not internal data)"
	noProprietaryDataRisk     = "Limited proprietary data available"
)

// Reduced keyword sets for the fallback path. The generated text is general
// knowledge, so positive keywords do not raise viability above Medium; they
// do shadow the Low set, mirroring the scorer's first-match-wins ordering.
var (
	generalPositiveKeywords = []string{"promising", "effective", "approved"}
	generalLowKeywords      = []string{"failed", "dangerous", "withdrawn"}
	generalMarketKeywords   = []string{"growing", "demand", "billion"}
)

// generalInsights answers a query with no relevant corpus documents using a
// single general-knowledge generation call. The recommendation is fixed at
// Investigate Further regardless of what the model says.
func (p *Pipeline) generalInsights(ctx context.Context, query string) AnalysisRecord {
	content, err := p.complete(ctx, generalInsightsPrompt(query), generalTemperature)
	if err != nil {
		slog.Error("general insights generation failed", "error", err)
		return errorRecord(err)
	}
	return generalRecord(query, content)
}

// generalRecord maps general-knowledge text to a low-confidence record.
func generalRecord(query, content string) AnalysisRecord {
	text := strings.ToLower(content)

	viability := ViabilityMedium
	if !containsAny(text, generalPositiveKeywords) && containsAny(text, generalLowKeywords) {
		viability = ViabilityLow
	}

	risks := []string{noProprietaryDataRisk}
	if strings.Contains(text, "risk") || strings.Contains(text, "concern") {
		risks = append(risks, "See detailed analysis for specific risks")
	}

	market := MarketUnknown
	if containsAny(text, generalMarketKeywords) {
		market = MarketModerate
	}

	explanation := fmt.Sprintf(`**⚠️ Note**: No relevant documents found in the knowledge base for this query.
The following insights are based on general AI knowledge and should be verified with authoritative sources.

**Query**: %s

**General Insights**:
%s

**Confidence**: LOW (25%%) - This analysis is not based on proprietary data.
Please upload relevant documents or consult domain experts for higher confidence analysis.`,
		query, content)

	return AnalysisRecord{
		ClinicalViability: viability,
		KeyEvidence:       []string{generalEvidenceDisclaimer},
		MajorRisks:        risks,
		MarketSignal:      market,
		Recommendation:    RecommendInvestigate,
		ConfidenceScore:   generalConfidence,
		Explanation:       explanation,
	}
}

// offlineGeneralRecord is the fallback-path record when no generation
// provider is configured at all.
func offlineGeneralRecord(query string) AnalysisRecord {
	explanation := fmt.Sprintf(`**⚠️ Note**: No relevant documents found in the knowledge base for this query,
and no generation provider is configured, so no general insights are available.

**Query**: %s

**Confidence**: LOW (25%%) - This analysis is not based on proprietary data.
Please upload relevant documents or configure a generation provider for higher confidence analysis.`,
		query)

	return AnalysisRecord{
		ClinicalViability: ViabilityUnknown,
		KeyEvidence:       []string{generalEvidenceDisclaimer},
		MajorRisks:        []string{noProprietaryDataRisk},
		MarketSignal:      MarketUnknown,
		Recommendation:    RecommendInvestigate,
		ConfidenceScore:   generalConfidence,
		Explanation:       explanation,
	}
}

// errorRecord is the universal fallback for unexpected pipeline errors. The
// caller always receives a well-formed record, never a raw failure.
func errorRecord(err error) AnalysisRecord {
	return AnalysisRecord{
		ClinicalViability: ViabilityUnknown,
		KeyEvidence:       []string{},
		MajorRisks:        []string{"analysis error"},
		MarketSignal:      MarketUnknown,
		Recommendation:    RecommendManualReview,
		ConfidenceScore:   0.0,
		Explanation:       fmt.Sprintf("Analysis failed: %v. Please try again or contact support.", err),
	}
}

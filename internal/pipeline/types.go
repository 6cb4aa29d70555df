// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DrugVista Contributors

package pipeline

// Viability grades the clinical outlook of a drug or molecule.
type Viability string

const (
	ViabilityHigh    Viability = "High"
	ViabilityMedium  Viability = "Medium"
	ViabilityLow     Viability = "Low"
	ViabilityUnknown Viability = "Unknown"
)

// MarketSignal grades the commercial outlook.
type MarketSignal string

const (
	MarketStrong   MarketSignal = "Strong"
	MarketModerate MarketSignal = "Moderate"
	MarketWeak     MarketSignal = "Weak"
	MarketUnknown  MarketSignal = "Unknown"
)

// Recommendation is the final go/no-go verdict.
type Recommendation string

const (
	RecommendProceed      Recommendation = "Proceed"
	RecommendInvestigate  Recommendation = "Investigate Further"
	RecommendDrop         Recommendation = "Drop"
	RecommendManualReview Recommendation = "Manual Review Required"
)

// AnalysisRecord is the structured result of one analysis run. Every path
// through the pipeline (knowledge-base, general-knowledge fallback, error
// fallback) produces a well-formed record.
type AnalysisRecord struct {
	ClinicalViability Viability      `json:"clinical_viability"`
	KeyEvidence       []string       `json:"key_evidence"`
	MajorRisks        []string       `json:"major_risks"`
	MarketSignal      MarketSignal   `json:"market_signal"`
	Recommendation    Recommendation `json:"recommendation"`
	ConfidenceScore   float64        `json:"confidence_score"`
	Explanation       string         `json:"explanation"`
}

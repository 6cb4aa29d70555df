// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DrugVista Contributors

package pipeline

import "fmt"

// Prompt templates for the four reasoning steps. Each step receives only the
// material it needs: the context step sees all relevant documents, the
// clinical and market steps see type-filtered subsets plus the context
// step's output, and the synthesis step sees the three analyses.

const contextPromptTemplate = `You are a biomedical AI analyzing a query about drugs, diseases, or molecules.

QUERY: %s

RETRIEVED CONTEXT:
%s

TASK: Analyze the query and context to understand:
1. What type of analysis is needed (disease, molecule, clinical trial, etc.)
2. Key entities mentioned (drug names, diseases, molecular targets)
3. The user's likely intent (research, clinical decision, market analysis)

Provide a clear, factual analysis focusing on what can be determined from the retrieved documents.
Avoid speculation. If information is missing, state that clearly.

ANALYSIS:
`

const clinicalPromptTemplate = `You are a clinical research expert analyzing biomedical evidence.

QUERY: %s
CONTEXT UNDERSTANDING: %s

CLINICAL EVIDENCE:
%s

TASK: Provide clinical reasoning based ONLY on the evidence provided:
1. Assess clinical viability based on available data
2. Identify potential risks or safety concerns mentioned
3. Note any clinical trial results or outcomes
4. Highlight mechanism of action if described

Be precise and cite specific evidence. Do not hallucinate information not present in the documents.
If evidence is insufficient, state that clearly.

CLINICAL ANALYSIS:
`

const marketPromptTemplate = `You are a pharmaceutical market analyst reviewing market intelligence.

QUERY: %s
CONTEXT UNDERSTANDING: %s

MARKET INTELLIGENCE:
%s

TASK: Analyze market factors based on provided information:
1. Market demand signals mentioned in the documents
2. Competitive landscape insights
3. Regulatory or approval status if mentioned
4. Commercial viability indicators

Base your analysis strictly on the provided market intelligence documents.
Do not speculate beyond what is explicitly stated.

MARKET ANALYSIS:
`

const synthesisPromptTemplate = `You are a pharmaceutical decision-making AI synthesizing multiple analyses.

QUERY: %s

CONTEXT ANALYSIS:
%s

CLINICAL ANALYSIS:
%s

MARKET ANALYSIS:
%s

TASK: Synthesize a final recommendation by:
1. Weighing clinical evidence against market factors
2. Identifying the most critical decision factors
3. Assessing overall risk-benefit profile
4. Providing a clear recommendation with reasoning

Your synthesis should be balanced, evidence-based, and acknowledge limitations.
Focus on actionable insights for pharmaceutical decision-makers.

DECISION SYNTHESIS:
`

const generalInsightsPromptTemplate = `You are a pharmaceutical research assistant. The user is asking about a topic
that is NOT in our internal knowledge base. Provide helpful general insights based on your training data.

Query: %s

Please provide:
1. A brief clinical assessment based on general medical knowledge
2. Known risks or concerns in this area
3. General market outlook if applicable
4. A cautious recommendation

Be clear that this is based on general knowledge, not proprietary data.
Format your response clearly with sections.`

func contextPrompt(query, retrievedContext string) string {
	return fmt.Sprintf(contextPromptTemplate, query, retrievedContext)
}

func clinicalPrompt(query, contextUnderstanding, clinicalEvidence string) string {
	return fmt.Sprintf(clinicalPromptTemplate, query, contextUnderstanding, clinicalEvidence)
}

func marketPrompt(query, contextUnderstanding, marketIntelligence string) string {
	return fmt.Sprintf(marketPromptTemplate, query, contextUnderstanding, marketIntelligence)
}

func synthesisPrompt(query, contextAnalysis, clinicalAnalysis, marketAnalysis string) string {
	return fmt.Sprintf(synthesisPromptTemplate, query, contextAnalysis, clinicalAnalysis, marketAnalysis)
}

func generalInsightsPrompt(query string) string {
	return fmt.Sprintf(generalInsightsPromptTemplate, query)
}

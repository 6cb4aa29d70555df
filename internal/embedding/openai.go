// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DrugVista Contributors

package embedding

import (
	"context"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	dverr "github.com/drugvista/drugvista/pkg/errors"
)

// OpenAIConfig holds OpenAI embedder configuration.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string // optional, useful for testing against a mock server
	Model      string
	Dimensions int
}

// OpenAI implements Embedder using the OpenAI embeddings API.
type OpenAI struct {
	client     openaisdk.Client
	model      string
	dimensions int
}

var _ Embedder = (*OpenAI)(nil)

// NewOpenAI creates an OpenAI embedder. Returns an error if the API key is
// missing.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, dverr.New(dverr.CodeConfigValidateInvalidValue, "openai embedder: missing api_key")
	}
	if cfg.Model == "" {
		cfg.Model = string(openaisdk.EmbeddingModelTextEmbedding3Small)
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = DefaultDimensions
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAI{
		client:     openaisdk.NewClient(opts...),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}, nil
}

func (o *OpenAI) Dimensions() int { return o.dimensions }
func (o *OpenAI) Model() string   { return o.model }

// Embed requests embeddings for all texts in one call and unit-normalizes
// the result. The dimensions parameter relies on the text-embedding-3
// family's native truncation support.
func (o *OpenAI) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := o.client.Embeddings.New(ctx, openaisdk.EmbeddingNewParams{
		Input:          openaisdk.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model:          openaisdk.EmbeddingModel(o.model),
		Dimensions:     openaisdk.Int(int64(o.dimensions)),
		EncodingFormat: openaisdk.EmbeddingNewParamsEncodingFormatFloat,
	})
	if err != nil {
		return nil, dverr.Wrapf(err, dverr.CodeEmbeddingUpstreamFailure,
			"requesting embeddings for %d texts", len(texts))
	}

	if len(resp.Data) != len(texts) {
		return nil, dverr.Errorf(dverr.CodeEmbeddingResponseInvalid,
			"expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	out := make([][]float32, len(resp.Data))
	for _, item := range resp.Data {
		if item.Index < 0 || int(item.Index) >= len(out) {
			return nil, dverr.Errorf(dverr.CodeEmbeddingResponseInvalid,
				"embedding index %d out of range", item.Index)
		}
		vec := make([]float32, len(item.Embedding))
		for i, x := range item.Embedding {
			vec[i] = float32(x)
		}
		if len(vec) != o.dimensions {
			return nil, dverr.Errorf(dverr.CodeEmbeddingResponseInvalid,
				"embedding dimension %d does not match configured %d", len(vec), o.dimensions)
		}
		normalize(vec)
		out[item.Index] = vec
	}

	return out, nil
}

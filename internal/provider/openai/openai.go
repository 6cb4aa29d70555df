// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DrugVista Contributors

package openai

import (
	"context"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/drugvista/drugvista/internal/provider"
	dverr "github.com/drugvista/drugvista/pkg/errors"
)

// Config holds OpenAI provider configuration.
type Config struct {
	APIKey  string
	BaseURL string // optional, useful for testing against a mock server
}

// Generator implements provider.Generator using the OpenAI Chat Completions API.
type Generator struct {
	client openaisdk.Client
	config Config
	health *provider.HealthTracker
}

var _ provider.Generator = (*Generator)(nil)

// New creates a new OpenAI generator. Returns an error if the API key is missing.
func New(cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, dverr.New(dverr.CodeProviderRequestInvalid, "openai: missing api_key in config",
			dverr.FieldProvider("openai"))
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	health, err := provider.NewHealthTracker(provider.DefaultHealthCooldown)
	if err != nil {
		return nil, dverr.Wrapf(err, dverr.CodeProviderRequestInvalid, "openai: creating health tracker")
	}

	return &Generator{
		client: openaisdk.NewClient(opts...),
		config: cfg,
		health: health,
	}, nil
}

func (g *Generator) Name() string { return "openai" }

func (g *Generator) Available(_ context.Context) bool {
	return g.health.IsHealthy()
}

// Health exposes the tracker for status reporting.
func (g *Generator) Health() *provider.HealthTracker { return g.health }

// Complete sends the prompt as a single user message and returns the
// completion text.
func (g *Generator) Complete(ctx context.Context, req provider.CompletionRequest) (string, error) {
	params := openaisdk.ChatCompletionNewParams{
		Model: shared.ChatModel(req.Model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.UserMessage(req.Prompt),
		},
	}

	if req.Temperature > 0 {
		params.Temperature = param.NewOpt(float64(req.Temperature))
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(req.MaxTokens))
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		g.health.RecordFailure()
		return "", dverr.Wrapf(err, dverr.CodeProviderUpstreamFailure,
			"openai: completion with model %s", req.Model)
	}

	if len(resp.Choices) == 0 {
		g.health.RecordFailure()
		return "", dverr.New(dverr.CodeProviderResponseInvalid, "openai: completion returned no choices",
			dverr.FieldModel(req.Model))
	}

	g.health.RecordSuccess()
	return resp.Choices[0].Message.Content, nil
}

func (g *Generator) Close() error { return nil }

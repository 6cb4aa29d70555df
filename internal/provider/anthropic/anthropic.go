// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DrugVista Contributors

package anthropic

import (
	"context"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/drugvista/drugvista/internal/provider"
	dverr "github.com/drugvista/drugvista/pkg/errors"
)

// defaultMaxTokens bounds completions when the caller does not set a limit;
// the Messages API requires an explicit value.
const defaultMaxTokens = 4096

// Config holds Anthropic provider configuration.
type Config struct {
	APIKey  string
	BaseURL string // optional, useful for testing against a mock server
}

// Generator implements provider.Generator using the Anthropic Messages API.
type Generator struct {
	client anthropicsdk.Client
	config Config
	health *provider.HealthTracker
}

var _ provider.Generator = (*Generator)(nil)

// New creates a new Anthropic generator. Returns an error if the API key is missing.
func New(cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, dverr.New(dverr.CodeProviderRequestInvalid, "anthropic: missing api_key in config",
			dverr.FieldProvider("anthropic"))
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	health, err := provider.NewHealthTracker(provider.DefaultHealthCooldown)
	if err != nil {
		return nil, dverr.Wrapf(err, dverr.CodeProviderRequestInvalid, "anthropic: creating health tracker")
	}

	return &Generator{
		client: anthropicsdk.NewClient(opts...),
		config: cfg,
		health: health,
	}, nil
}

func (g *Generator) Name() string { return "anthropic" }

func (g *Generator) Available(_ context.Context) bool {
	return g.health.IsHealthy()
}

// Health exposes the tracker for status reporting.
func (g *Generator) Health() *provider.HealthTracker { return g.health }

// Complete sends the prompt as a single user message and returns the
// concatenated text blocks of the response.
func (g *Generator) Complete(ctx context.Context, req provider.CompletionRequest) (string, error) {
	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(req.Model),
		MaxTokens: maxTokens,
		Messages: []anthropicsdk.MessageParam{
			anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(req.Prompt)),
		},
	}

	if req.Temperature > 0 {
		params.Temperature = anthropicsdk.Float(float64(req.Temperature))
	}

	msg, err := g.client.Messages.New(ctx, params)
	if err != nil {
		g.health.RecordFailure()
		return "", dverr.Wrapf(err, dverr.CodeProviderUpstreamFailure,
			"anthropic: completion with model %s", req.Model)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		sb.WriteString(block.Text)
	}
	if sb.Len() == 0 {
		g.health.RecordFailure()
		return "", dverr.New(dverr.CodeProviderResponseInvalid, "anthropic: completion returned no text",
			dverr.FieldModel(req.Model))
	}

	g.health.RecordSuccess()
	return sb.String(), nil
}

func (g *Generator) Close() error { return nil }

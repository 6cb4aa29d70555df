// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DrugVista Contributors

package google

import (
	"context"
	"strings"

	"google.golang.org/genai"

	"github.com/drugvista/drugvista/internal/provider"
	dverr "github.com/drugvista/drugvista/pkg/errors"
)

// Config holds Google Gemini provider configuration.
type Config struct {
	APIKey string
}

// Generator implements provider.Generator using the Gemini API.
type Generator struct {
	client *genai.Client
	config Config
	health *provider.HealthTracker
}

var _ provider.Generator = (*Generator)(nil)

// New creates a new Google generator. Returns an error if the API key is missing.
func New(cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, dverr.New(dverr.CodeProviderRequestInvalid, "google: missing api_key in config",
			dverr.FieldProvider("google"))
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, dverr.Wrapf(err, dverr.CodeProviderUpstreamFailure, "google: creating client")
	}

	health, err := provider.NewHealthTracker(provider.DefaultHealthCooldown)
	if err != nil {
		return nil, dverr.Wrapf(err, dverr.CodeProviderRequestInvalid, "google: creating health tracker")
	}

	return &Generator{
		client: client,
		config: cfg,
		health: health,
	}, nil
}

func (g *Generator) Name() string { return "google" }

func (g *Generator) Available(_ context.Context) bool {
	return g.health.IsHealthy()
}

// Health exposes the tracker for status reporting.
func (g *Generator) Health() *provider.HealthTracker { return g.health }

// Complete sends the prompt as a single user turn and returns the
// concatenated text parts of the first candidate.
func (g *Generator) Complete(ctx context.Context, req provider.CompletionRequest) (string, error) {
	cfg := &genai.GenerateContentConfig{}
	if req.Temperature > 0 {
		cfg.Temperature = genai.Ptr(req.Temperature)
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	contents := []*genai.Content{
		{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{{Text: req.Prompt}},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		g.health.RecordFailure()
		return "", dverr.Wrapf(err, dverr.CodeProviderUpstreamFailure,
			"google: completion with model %s", req.Model)
	}

	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			sb.WriteString(part.Text)
		}
		break
	}
	if sb.Len() == 0 {
		g.health.RecordFailure()
		return "", dverr.New(dverr.CodeProviderResponseInvalid, "google: completion returned no text",
			dverr.FieldModel(req.Model))
	}

	g.health.RecordSuccess()
	return sb.String(), nil
}

func (g *Generator) Close() error { return nil }

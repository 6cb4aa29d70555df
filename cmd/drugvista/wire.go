// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DrugVista Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/drugvista/drugvista/internal/config"
	"github.com/drugvista/drugvista/internal/embedding"
	"github.com/drugvista/drugvista/internal/ingest"
	"github.com/drugvista/drugvista/internal/pipeline"
	"github.com/drugvista/drugvista/internal/provider"
	anthropicprov "github.com/drugvista/drugvista/internal/provider/anthropic"
	googleprov "github.com/drugvista/drugvista/internal/provider/google"
	openaiprov "github.com/drugvista/drugvista/internal/provider/openai"
	"github.com/drugvista/drugvista/internal/server"
	"github.com/drugvista/drugvista/internal/store"
	"github.com/drugvista/drugvista/internal/store/sqlite"
	dverr "github.com/drugvista/drugvista/pkg/errors"
)

// App holds all wired subsystems and manages their lifecycle.
type App struct {
	Server   *server.Server
	Index    store.Index
	Embedder embedding.Embedder
	Registry *provider.Registry
	Pipeline *pipeline.Pipeline
	Ingest   *ingest.Service
}

// WireApp creates all subsystems and wires them together.
func WireApp(cfg *config.Config) (*App, error) {
	// 1. Embedder.
	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	// 2. Vector index. Ensure the parent directory exists first.
	if dir := filepath.Dir(cfg.Storage.IndexPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, dverr.Errorf(dverr.CodeCLISetupFailure, "creating index directory: %w", err)
		}
	}
	index, err := sqlite.Open(cfg.Storage.IndexPath, embedder.Dimensions())
	if err != nil {
		return nil, dverr.Wrapf(err, dverr.CodeCLISetupFailure, "opening index at %s", cfg.Storage.IndexPath)
	}

	// 3. Provider registry. An empty registry is valid and puts the
	// pipeline into offline keyword mode.
	registry, err := provider.NewRegistry(cfg.Models.Default)
	if err != nil {
		_ = index.Close()
		return nil, dverr.Wrapf(err, dverr.CodeCLISetupFailure, "creating provider registry")
	}
	registerBuiltinProviders(cfg, registry)
	if registry.Empty() {
		slog.Warn("no generation provider configured, running in offline keyword mode")
	}

	// 4. Analysis pipeline.
	pipe, err := pipeline.New(index, embedder, registry, pipeline.Options{
		TopK:               cfg.Retrieval.TopK,
		RelevanceThreshold: cfg.Retrieval.RelevanceThreshold,
	})
	if err != nil {
		_ = index.Close()
		return nil, dverr.Wrapf(err, dverr.CodeCLISetupFailure, "creating pipeline")
	}

	// 5. Ingest service.
	ingestSvc, err := ingest.New(index, embedder)
	if err != nil {
		_ = index.Close()
		return nil, dverr.Wrapf(err, dverr.CodeCLISetupFailure, "creating ingest service")
	}

	// 6. HTTP server with service adapters.
	var providerSvc server.ProviderStatusService
	if !registry.Empty() {
		providerSvc = &providerStatusAdapter{registry: registry}
	}
	services, err := server.NewServices(pipe, ingestSvc,
		&statsAdapter{index: index, embedder: embedder}, providerSvc)
	if err != nil {
		_ = index.Close()
		return nil, dverr.Wrapf(err, dverr.CodeCLISetupFailure, "creating services")
	}

	srv, err := server.New(server.Config{
		ListenAddr:  cfg.Server.Listen,
		CORSOrigins: cfg.Server.CORSOrigins,
	})
	if err != nil {
		_ = index.Close()
		return nil, dverr.Errorf(dverr.CodeCLISetupFailure, "creating server: %w", err)
	}
	srv.RegisterServices(services)

	return &App{
		Server:   srv,
		Index:    index,
		Embedder: embedder,
		Registry: registry,
		Pipeline: pipe,
		Ingest:   ingestSvc,
	}, nil
}

// Start runs the HTTP server and blocks until the context is cancelled.
func (a *App) Start(ctx context.Context) error {
	return a.Server.Start(ctx)
}

// Close releases all resources held by the app.
func (a *App) Close() error {
	var errs []error
	if a.Registry != nil {
		if err := a.Registry.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.Index != nil {
		if err := a.Index.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// buildEmbedder selects the embedding backend from config.
func buildEmbedder(cfg *config.Config) (embedding.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "openai":
		return embedding.NewOpenAI(embedding.OpenAIConfig{
			APIKey:     cfg.Providers["openai"].APIKey,
			BaseURL:    cfg.Providers["openai"].Endpoint,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		})
	default:
		return embedding.NewLocal(cfg.Embedding.Dimensions), nil
	}
}

// generatorFactory builds a provider.Generator from a ProviderConfig.
type generatorFactory func(config.ProviderConfig) (provider.Generator, error)

// builtinGeneratorFactories maps provider names to their constructors.
var builtinGeneratorFactories = map[string]generatorFactory{
	"openai": func(pc config.ProviderConfig) (provider.Generator, error) {
		return openaiprov.New(openaiprov.Config{APIKey: pc.APIKey, BaseURL: pc.Endpoint})
	},
	"anthropic": func(pc config.ProviderConfig) (provider.Generator, error) {
		return anthropicprov.New(anthropicprov.Config{APIKey: pc.APIKey, BaseURL: pc.Endpoint})
	},
	"google": func(pc config.ProviderConfig) (provider.Generator, error) {
		return googleprov.New(googleprov.Config{APIKey: pc.APIKey})
	},
}

// registerBuiltinProviders iterates configured providers and registers
// matching built-in implementations. Unknown names or empty API keys are
// logged and skipped; neither is fatal at startup.
func registerBuiltinProviders(cfg *config.Config, reg *provider.Registry) {
	for name, pc := range cfg.Providers {
		if pc.APIKey == "" {
			slog.Warn("skipping provider with empty API key", "provider", name)
			continue
		}
		factory, ok := builtinGeneratorFactories[name]
		if !ok {
			slog.Warn("unknown provider in config, skipping", "provider", name)
			continue
		}
		g, err := factory(pc)
		if err != nil {
			slog.Warn("failed to create provider", "provider", name, "error", err)
			continue
		}
		if err := reg.Register(g); err != nil {
			slog.Warn("failed to register provider", "provider", name, "error", err)
		}
	}
}

// statsAdapter exposes index and embedder statistics to the stats endpoint.
type statsAdapter struct {
	index    store.Index
	embedder embedding.Embedder
}

func (a *statsAdapter) Stats(ctx context.Context) (*server.StatsDetail, error) {
	st, err := a.index.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &server.StatsDetail{
		TotalDocuments:     st.TotalDocuments,
		IndexSize:          st.IndexSize,
		EmbeddingDimension: a.embedder.Dimensions(),
		ModelName:          a.embedder.Model(),
	}, nil
}

// providerStatusAdapter exposes registry availability to the status endpoint.
type providerStatusAdapter struct {
	registry *provider.Registry
}

func (a *providerStatusAdapter) Statuses(ctx context.Context) []server.ProviderStatusDetail {
	statuses := a.registry.Statuses(ctx)
	details := make([]server.ProviderStatusDetail, len(statuses))
	for i, s := range statuses {
		details[i] = server.ProviderStatusDetail{
			Provider:  s.Provider,
			Model:     s.Model,
			Available: s.Available,
			Metrics:   s.Health,
		}
	}
	return details
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DrugVista Contributors

package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drugvista/drugvista/internal/config"
	"github.com/drugvista/drugvista/internal/provider"
)

func offlineTestConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{Listen: "127.0.0.1:0"},
		Embedding: config.EmbeddingConfig{
			Provider:   "local",
			Dimensions: 64,
		},
		Retrieval: config.RetrievalConfig{
			TopK:               5,
			RelevanceThreshold: 0.3,
		},
		Storage: config.StorageConfig{
			IndexPath: filepath.Join(t.TempDir(), "index.db"),
		},
	}
}

func TestWireApp_Offline(t *testing.T) {
	app, err := WireApp(offlineTestConfig(t))
	require.NoError(t, err)
	defer func() { require.NoError(t, app.Close()) }()

	require.NotNil(t, app.Server)
	require.NotNil(t, app.Index)
	require.NotNil(t, app.Pipeline)
	require.NotNil(t, app.Ingest)
	assert.True(t, app.Registry.Empty(), "no providers configured means offline mode")
}

func TestWireApp_IngestThenAnalyze(t *testing.T) {
	app, err := WireApp(offlineTestConfig(t))
	require.NoError(t, err)
	defer func() { _ = app.Close() }()

	ctx := context.Background()
	added, err := app.Ingest.IngestText(ctx,
		"Aspirin trials were promising and effective for cardiovascular patients.",
		"clinical_trial", "aspirin notes")
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	record, err := app.Pipeline.Analyze(ctx, "aspirin cardiovascular effectiveness")
	require.NoError(t, err)
	assert.NotEmpty(t, record.Recommendation)
	assert.NotEmpty(t, record.Explanation)
}

func TestRegisterBuiltinProviders_SkipsInvalidEntries(t *testing.T) {
	cfg := offlineTestConfig(t)
	cfg.Providers = map[string]config.ProviderConfig{
		"openai":  {APIKey: ""},          // empty key, skipped
		"mystery": {APIKey: "sk-secret"}, // unknown name, skipped
	}

	reg, err := provider.NewRegistry("")
	require.NoError(t, err)
	defer func() { _ = reg.Close() }()

	registerBuiltinProviders(cfg, reg)
	assert.True(t, reg.Empty())
}

func TestRegisterBuiltinProviders_RegistersConfigured(t *testing.T) {
	cfg := offlineTestConfig(t)
	cfg.Providers = map[string]config.ProviderConfig{
		"openai": {APIKey: "sk-test"},
	}

	reg, err := provider.NewRegistry("openai/gpt-4o-mini")
	require.NoError(t, err)
	defer func() { _ = reg.Close() }()

	registerBuiltinProviders(cfg, reg)
	assert.False(t, reg.Empty())
}

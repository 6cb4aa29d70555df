// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DrugVista Contributors

package config

import (
	"errors"
	"net"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	dverr "github.com/drugvista/drugvista/pkg/errors"
)

// Config is the top-level DrugVista configuration.
type Config struct {
	Server    ServerConfig              `mapstructure:"server"`
	Providers map[string]ProviderConfig `mapstructure:"providers"`
	Models    ModelsConfig              `mapstructure:"models"`
	Embedding EmbeddingConfig           `mapstructure:"embedding"`
	Retrieval RetrievalConfig           `mapstructure:"retrieval"`
	Storage   StorageConfig             `mapstructure:"storage"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Listen      string   `mapstructure:"listen"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// ProviderConfig holds credentials and endpoint for a generation provider.
type ProviderConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Endpoint string `mapstructure:"endpoint"`
}

// ModelsConfig selects the default generation model. An empty default puts
// the pipeline into offline keyword mode.
type ModelsConfig struct {
	Default string `mapstructure:"default"`
}

// EmbeddingConfig selects the embedding backend.
type EmbeddingConfig struct {
	Provider   string `mapstructure:"provider"`
	Model      string `mapstructure:"model"`
	Dimensions int    `mapstructure:"dimensions"`
}

// RetrievalConfig tunes document retrieval.
type RetrievalConfig struct {
	TopK               int     `mapstructure:"top_k"`
	RelevanceThreshold float64 `mapstructure:"relevance_threshold"`
}

// StorageConfig locates the vector index database. An empty path resolves
// to the per-user data directory at load time.
type StorageConfig struct {
	IndexPath string `mapstructure:"index_path"`
}

// SetDefaults applies default values to a Viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.listen", "127.0.0.1:8000")
	v.SetDefault("embedding.provider", "local")
	v.SetDefault("embedding.model", "text-embedding-3-small")
	v.SetDefault("embedding.dimensions", 384)
	v.SetDefault("retrieval.top_k", 5)
	v.SetDefault("retrieval.relevance_threshold", 0.3)
}

// SetupEnv binds DRUGVISTA_-prefixed environment variables.
func SetupEnv(v *viper.Viper) {
	v.SetEnvPrefix("DRUGVISTA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides (prefix DRUGVISTA_).
func Load(path string) (*Config, error) {
	v := viper.New()

	SetDefaults(v)
	SetupEnv(v)

	// File
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, dverr.Errorf(dverr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, dverr.Errorf(dverr.CodeConfigParseInvalidFormat, "unmarshalling config: %w", err)
	}

	if cfg.Storage.IndexPath == "" {
		indexPath, err := DefaultIndexPath()
		if err != nil {
			return nil, err
		}
		cfg.Storage.IndexPath = indexPath
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, dverr.Errorf(dverr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}

	return &cfg, nil
}

// knownProviders are the generation provider names the binary can construct.
var knownProviders = map[string]bool{"openai": true, "anthropic": true, "google": true}

// Validate checks the configuration for logical errors.
// It returns a slice of all validation errors found, collecting all issues
// rather than stopping at the first one.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateServer()...)
	errs = append(errs, c.validateModels()...)
	errs = append(errs, c.validateEmbedding()...)
	errs = append(errs, c.validateRetrieval()...)

	return errs
}

func (c *Config) validateServer() []error {
	var errs []error

	if c.Server.Listen == "" {
		errs = append(errs, dverr.Errorf(dverr.CodeConfigValidateInvalidValue, "config: server.listen must not be empty"))
		return errs
	}

	_, portStr, err := net.SplitHostPort(c.Server.Listen)
	if err != nil {
		errs = append(errs, dverr.Errorf(dverr.CodeConfigValidateInvalidValue,
			"config: server.listen must be a valid host:port address, got %q: %w",
			c.Server.Listen, err,
		))
		return errs
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		errs = append(errs, dverr.Errorf(dverr.CodeConfigValidateInvalidValue,
			"config: server.listen port must be a number, got %q", portStr))
	} else if port < 1 || port > 65535 {
		errs = append(errs, dverr.Errorf(dverr.CodeConfigValidateInvalidValue,
			"config: server.listen port must be between 1 and 65535, got %d", port))
	}

	return errs
}

func (c *Config) validateModels() []error {
	var errs []error

	// No default model is valid: the pipeline runs in offline keyword mode.
	if c.Models.Default == "" {
		return errs
	}

	if !strings.Contains(c.Models.Default, "/") {
		errs = append(errs, dverr.Errorf(dverr.CodeConfigValidateInvalidValue,
			"config: models.default must be in \"provider/model\" format, got %q",
			c.Models.Default,
		))
		return errs
	}

	providerName := providerFromModel(c.Models.Default)
	if !knownProviders[providerName] {
		errs = append(errs, dverr.Errorf(dverr.CodeConfigValidateInvalidValue,
			"config: models.default references unknown provider %q, must be one of [anthropic, google, openai]",
			providerName,
		))
	}

	if c.Providers != nil {
		if _, ok := c.Providers[providerName]; !ok {
			errs = append(errs, dverr.Errorf(dverr.CodeConfigValidateInvalidValue,
				"config: models.default %q references provider %q which is not configured",
				c.Models.Default, providerName,
			))
		}
	}

	return errs
}

func (c *Config) validateEmbedding() []error {
	var errs []error

	validProviders := map[string]bool{"local": true, "openai": true}
	if !validProviders[c.Embedding.Provider] {
		errs = append(errs, dverr.Errorf(dverr.CodeConfigValidateInvalidValue,
			"config: embedding.provider must be one of [local, openai], got %q",
			c.Embedding.Provider,
		))
	}

	if c.Embedding.Dimensions <= 0 {
		errs = append(errs, dverr.Errorf(dverr.CodeConfigValidateInvalidValue,
			"config: embedding.dimensions must be greater than 0, got %d",
			c.Embedding.Dimensions,
		))
	}

	return errs
}

func (c *Config) validateRetrieval() []error {
	var errs []error

	if c.Retrieval.TopK <= 0 {
		errs = append(errs, dverr.Errorf(dverr.CodeConfigValidateInvalidValue,
			"config: retrieval.top_k must be greater than 0, got %d",
			c.Retrieval.TopK,
		))
	}

	if c.Retrieval.RelevanceThreshold <= 0 || c.Retrieval.RelevanceThreshold >= 1 {
		errs = append(errs, dverr.Errorf(dverr.CodeConfigValidateInvalidValue,
			"config: retrieval.relevance_threshold must be in (0, 1), got %g",
			c.Retrieval.RelevanceThreshold,
		))
	}

	return errs
}

// providerFromModel extracts the provider prefix from a "provider/model" string.
func providerFromModel(model string) string {
	if idx := strings.Index(model, "/"); idx > 0 {
		return model[:idx]
	}
	return model
}

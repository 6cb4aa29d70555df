// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DrugVista Contributors

// Package provider abstracts external text-generation services. The
// reasoning chain treats every provider as a black box: one fully
// interpolated prompt in, one free-text completion out.
package provider

import (
	"context"

	"github.com/drugvista/drugvista/pkg/health"
)

// Generator is the core interface for text-generation providers.
type Generator interface {
	Name() string
	Available(ctx context.Context) bool
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	Close() error
}

// CompletionRequest is a single-turn generation request. The prompt is sent
// as one user-role message.
type CompletionRequest struct {
	Model       string
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// Status indicates provider health for the status endpoint.
type Status struct {
	Provider  string         `json:"provider"`
	Model     string         `json:"model"`
	Available bool           `json:"available"`
	Health    health.Metrics `json:"health"`
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DrugVista Contributors

package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drugvista/drugvista/internal/provider"
	dverr "github.com/drugvista/drugvista/pkg/errors"
)

func TestNew_MissingAPIKey(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
	assert.True(t, dverr.IsInvalidInput(err))
}

func TestComplete(t *testing.T) {
	var gotReq map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":   "msg_test",
			"type": "message",
			"role": "assistant",
			"content": []map[string]any{
				{"type": "text", "text": "Clinical viability is "},
				{"type": "text", "text": "high."},
			},
			"model":       "claude-sonnet-4-5",
			"stop_reason": "end_turn",
		})
	}))
	defer srv.Close()

	g, err := New(Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)
	defer g.Close()

	text, err := g.Complete(context.Background(), provider.CompletionRequest{
		Model:       "claude-sonnet-4-5",
		Prompt:      "Assess clinical viability.",
		Temperature: 0.2,
		MaxTokens:   512,
	})
	require.NoError(t, err)
	assert.Equal(t, "Clinical viability is high.", text)

	assert.Equal(t, "claude-sonnet-4-5", gotReq["model"])
	assert.InDelta(t, 512, gotReq["max_tokens"], 1e-6)
	assert.InDelta(t, 0.2, gotReq["temperature"], 1e-6)
}

func TestComplete_DefaultMaxTokens(t *testing.T) {
	var gotReq map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":   "msg_test",
			"type": "message",
			"role": "assistant",
			"content": []map[string]any{
				{"type": "text", "text": "ok"},
			},
			"model":       "claude-sonnet-4-5",
			"stop_reason": "end_turn",
		})
	}))
	defer srv.Close()

	g, err := New(Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)
	defer g.Close()

	_, err = g.Complete(context.Background(), provider.CompletionRequest{
		Model:  "claude-sonnet-4-5",
		Prompt: "hello",
	})
	require.NoError(t, err)
	assert.InDelta(t, defaultMaxTokens, gotReq["max_tokens"], 1e-6)
}

func TestComplete_UpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"type": "error", "error": {"type": "overloaded_error", "message": "overloaded"}}`,
			http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g, err := New(Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)
	defer g.Close()

	_, err = g.Complete(context.Background(), provider.CompletionRequest{
		Model:  "claude-sonnet-4-5",
		Prompt: "hello",
	})
	require.Error(t, err)
	assert.True(t, dverr.IsUpstreamFailure(err))
	assert.False(t, g.Available(context.Background()))
}

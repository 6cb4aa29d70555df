// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DrugVista Contributors

package openai

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
			"id":     "chatcmpl-test",
			"object": "chat.completion",
			"model":  "gpt-4.1-mini",
			"choices": []map[string]any{
				{
					"index":         0,
					"finish_reason": "stop",
					"message": map[string]any{
						"role":    "assistant",
						"content": "Aspirin shows strong cardiovascular evidence.",
					},
				},
			},
		})
	}))
	defer srv.Close()

	g, err := New(Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)
	defer g.Close()

	text, err := g.Complete(context.Background(), provider.CompletionRequest{
		Model:       "gpt-4.1-mini",
		Prompt:      "Summarize the evidence for aspirin.",
		Temperature: 0.3,
	})
	require.NoError(t, err)
	assert.Equal(t, "Aspirin shows strong cardiovascular evidence.", text)

	assert.Equal(t, "gpt-4.1-mini", gotReq["model"])
	assert.InDelta(t, 0.3, gotReq["temperature"], 1e-6)
	assert.True(t, g.Available(context.Background()))
}

func TestComplete_UpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": {"message": "rate limited"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g, err := New(Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)
	defer g.Close()

	_, err = g.Complete(context.Background(), provider.CompletionRequest{
		Model:  "gpt-4.1-mini",
		Prompt: "hello",
	})
	require.Error(t, err)
	assert.Equal(t, dverr.CodeProviderUpstreamFailure, dverr.CodeOf(err))
	assert.False(t, g.Available(context.Background()))
}

func TestComplete_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "chatcmpl-test", "object": "chat.completion", "choices": []}`))
	}))
	defer srv.Close()

	g, err := New(Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)
	defer g.Close()

	_, err = g.Complete(context.Background(), provider.CompletionRequest{
		Model:  "gpt-4.1-mini",
		Prompt: "hello",
	})
	require.Error(t, err)
	assert.Equal(t, dverr.CodeProviderResponseInvalid, dverr.CodeOf(err))
}

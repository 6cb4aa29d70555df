// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DrugVista Contributors

package provider

import (
	"context"
	"io"
	"net/http"

	dverr "github.com/drugvista/drugvista/pkg/errors"
)

// ValidateKey checks that an API key is accepted by the named provider by
// issuing a lightweight authenticated request against its model listing
// endpoint. It does not consume tokens.
func ValidateKey(ctx context.Context, client *http.Client, providerName, key string) error {
	var (
		url     string
		headers map[string]string
	)

	switch providerName {
	case "anthropic":
		url = "https://api.anthropic.com/v1/models"
		headers = map[string]string{
			"x-api-key":         key,
			"anthropic-version": "2023-06-01",
		}
	case "openai":
		url = "https://api.openai.com/v1/models"
		headers = map[string]string{
			"Authorization": "Bearer " + key,
		}
	case "google":
		// Google's Generative Language API authenticates via query parameter.
		url = "https://generativelanguage.googleapis.com/v1/models?key=" + key
	default:
		return dverr.Errorf(dverr.CodeProviderKeyInvalid, "unknown provider: %s", providerName)
	}

	return validateAgainst(ctx, client, providerName, url, headers)
}

// ValidateKeyWithURL is a testable variant of ValidateKey. When url is
// non-empty it overrides the provider's default endpoint.
func ValidateKeyWithURL(ctx context.Context, client *http.Client, providerName, key, url string) error {
	if url == "" {
		return ValidateKey(ctx, client, providerName, key)
	}

	headers := make(map[string]string)
	switch providerName {
	case "anthropic":
		headers["x-api-key"] = key
		headers["anthropic-version"] = "2023-06-01"
	case "openai":
		headers["Authorization"] = "Bearer " + key
	}

	return validateAgainst(ctx, client, providerName, url, headers)
}

func validateAgainst(ctx context.Context, client *http.Client, providerName, url string, headers map[string]string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return dverr.Errorf(dverr.CodeProviderKeyCheckFailed, "building validation request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return dverr.Errorf(dverr.CodeProviderKeyCheckFailed, "validating %s key: %w", providerName, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return dverr.Errorf(dverr.CodeProviderKeyInvalid, "invalid %s API key (HTTP %d)", providerName, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return dverr.Errorf(dverr.CodeProviderKeyCheckFailed, "%s validation failed (HTTP %d)", providerName, resp.StatusCode)
	}

	return nil
}

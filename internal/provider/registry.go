// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DrugVista Contributors

package provider

import (
	"context"
	"strings"
	"sync"

	dverr "github.com/drugvista/drugvista/pkg/errors"
)

// Registry manages generator registration and lookup. Model references use
// the "provider/model" format, e.g. "openai/gpt-4.1-mini".
type Registry struct {
	mu         sync.RWMutex
	generators map[string]Generator
	defaultRef string
}

// NewRegistry creates an empty registry. defaultRef may be empty when no
// provider is configured (offline mode).
func NewRegistry(defaultRef string) (*Registry, error) {
	if defaultRef != "" {
		if _, _, err := SplitModelRef(defaultRef); err != nil {
			return nil, err
		}
	}
	return &Registry{
		generators: make(map[string]Generator),
		defaultRef: defaultRef,
	}, nil
}

// SplitModelRef parses a "provider/model" reference.
func SplitModelRef(ref string) (providerName, model string, err error) {
	providerName, model, ok := strings.Cut(ref, "/")
	if !ok || providerName == "" || model == "" {
		return "", "", dverr.Errorf(dverr.CodeProviderInvalidModelRef,
			"model reference %q must be in provider/model format", ref)
	}
	return providerName, model, nil
}

// Register adds a generator under its name. Registering the same name twice
// is a configuration error.
func (r *Registry) Register(g Generator) error {
	if g == nil {
		return dverr.New(dverr.CodeConfigValidateInvalidValue, "cannot register nil generator")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name := g.Name()
	if _, exists := r.generators[name]; exists {
		return dverr.Errorf(dverr.CodeConfigValidateInvalidValue, "generator %q already registered", name)
	}
	r.generators[name] = g
	return nil
}

// Resolve returns the generator and model for a model reference, falling
// back to the registry default when ref is empty.
func (r *Registry) Resolve(ref string) (Generator, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if ref == "" {
		ref = r.defaultRef
	}
	if ref == "" {
		return nil, "", dverr.New(dverr.CodeProviderNotFound, "no generation provider configured")
	}

	providerName, model, err := SplitModelRef(ref)
	if err != nil {
		return nil, "", err
	}

	g, ok := r.generators[providerName]
	if !ok {
		return nil, "", dverr.Errorf(dverr.CodeProviderNotFound, "provider %q not registered", providerName)
	}
	return g, model, nil
}

// Empty reports whether no generators are registered. An empty registry
// puts the analysis pipeline into offline keyword mode.
func (r *Registry) Empty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.generators) == 0
}

// Statuses reports each registered generator's availability, for the
// status endpoint.
func (r *Registry) Statuses(ctx context.Context) []Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, defaultModel, _ := splitOrEmpty(r.defaultRef)

	statuses := make([]Status, 0, len(r.generators))
	for name, g := range r.generators {
		s := Status{
			Provider:  name,
			Available: g.Available(ctx),
		}
		if hp, ok := g.(interface{ Health() *HealthTracker }); ok {
			s.Health = hp.Health().Metrics()
		}
		if defaultProvider, _, err := SplitModelRef(r.defaultRef); err == nil && defaultProvider == name {
			s.Model = defaultModel
		}
		statuses = append(statuses, s)
	}
	return statuses
}

// Close closes all registered generators, joining any errors.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, g := range r.generators {
		if err := g.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.generators = make(map[string]Generator)

	if len(errs) == 0 {
		return nil
	}
	return dverr.Join(errs...)
}

func splitOrEmpty(ref string) (string, string, error) {
	if ref == "" {
		return "", "", nil
	}
	return SplitModelRef(ref)
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DrugVista Contributors

package google

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dverr "github.com/drugvista/drugvista/pkg/errors"
)

func TestNew_MissingAPIKey(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
	assert.True(t, dverr.IsInvalidInput(err))
}

func TestNew(t *testing.T) {
	g, err := New(Config{APIKey: "test-key"})
	require.NoError(t, err)
	defer g.Close()

	assert.Equal(t, "google", g.Name())
	assert.True(t, g.Available(context.Background()))
	assert.NotNil(t, g.Health())
}

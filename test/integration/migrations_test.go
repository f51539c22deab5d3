//go:build integration
// +build integration

package integration

import (
	"testing"

	"github.com/foodtrack/api/internal/infrastructure/persistence/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const latestVersion = 5

func TestMigrations_UpDownUp(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres integration tests in short mode")
	}

	// Arrange
	cfg := postgresConfig(t)
	m, err := migrations.Open(cfg.DSN(), cfg.Database, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer m.Close()

	// Act & Assert
	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Zero(t, version)
	assert.False(t, dirty)

	require.NoError(t, m.Up())
	version, _, err = m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(latestVersion), version)

	// a second run is a no-op
	require.NoError(t, m.Up())

	for want := latestVersion - 1; want >= 0; want-- {
		require.NoError(t, m.Down())
		version, dirty, err = m.Version()
		require.NoError(t, err)
		assert.Equal(t, uint(want), version)
		assert.False(t, dirty)
	}

	require.NoError(t, m.Up())
	version, _, err = m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(latestVersion), version)
}

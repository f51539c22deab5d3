package container

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/foodtrack/api/internal/infrastructure/config"
	"github.com/foodtrack/api/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app:\n  log_level: error\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	return cfg
}

func TestModule_GraphIsComplete(t *testing.T) {
	// Arrange
	log, err := logger.New(logger.Config{Level: "error"})
	require.NoError(t, err)
	cfg := testConfig(t)

	// Act
	err = fx.ValidateApp(
		fx.Supply(cfg, log, log.Logger),
		fx.NopLogger,
		Module,
	)

	// Assert
	assert.NoError(t, err)
}

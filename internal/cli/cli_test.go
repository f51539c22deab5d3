package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	body := fmt.Sprintf(`app:
  log_level: error
database:
  driver: sqlite
  path: %s
storage:
  local_dir: %s
`, filepath.Join(dir, "foodtrack.db"), filepath.Join(dir, "uploads"))

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}

	assert.Subset(t, names, []string{"serve", "migrate", "seed"})
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestSeedCommand_Idempotent(t *testing.T) {
	// Arrange
	cfg := sqliteConfig(t)

	// Act
	first, err := run(t, "seed", "--config", cfg)
	require.NoError(t, err)
	second, err := run(t, "seed", "--config", cfg)
	require.NoError(t, err)

	// Assert
	assert.NotContains(t, first, "created 0 ingredients and 0 recipes")
	assert.Contains(t, second, "created 0 ingredients and 0 recipes")
}

func TestSeedCommand_CustomCatalog(t *testing.T) {
	cfg := sqliteConfig(t)
	catalog := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(catalog, []byte("unknown: true\n"), 0o600))

	_, err := run(t, "seed", "--config", cfg, "--file", catalog)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse seed catalog")
}

func TestMigrateCommand(t *testing.T) {
	cfg := sqliteConfig(t)

	t.Run("up on sqlite", func(t *testing.T) {
		_, err := run(t, "migrate", "up", "--config", cfg)
		assert.NoError(t, err)
	})

	t.Run("version requires postgres", func(t *testing.T) {
		_, err := run(t, "migrate", "version", "--config", cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "postgres")
	})
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  driver: mysql\n"), 0o600))

	_, err := run(t, "seed", "--config", path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.driver")
}

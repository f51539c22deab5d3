// Package cli implements the foodtrack command line
package cli

import (
	"github.com/foodtrack/api/internal/infrastructure/config"
	"github.com/foodtrack/api/pkg/logger"
	"github.com/spf13/cobra"
)

// NewRootCommand builds the foodtrack command tree
func NewRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "foodtrack",
		Short: "Meal planning and recipe catalog API",
		Long: `foodtrack serves the recipe catalog, meal plan generation, shopping lists
and community reviews over a REST API.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default is ./config.yaml)")

	load := func() (*config.Config, *logger.Logger, error) {
		return loadConfig(configPath)
	}

	root.AddCommand(
		newServeCommand(load),
		newMigrateCommand(load),
		newSeedCommand(load),
	)
	return root
}

type loader func() (*config.Config, *logger.Logger, error)

func loadConfig(path string) (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Format:      cfg.App.LogFormat,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

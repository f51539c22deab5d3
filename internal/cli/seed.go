package cli

import (
	"fmt"
	"os"

	"github.com/foodtrack/api/internal/infrastructure/container"
	gormrepo "github.com/foodtrack/api/internal/infrastructure/persistence/gorm"
	"github.com/foodtrack/api/internal/infrastructure/persistence/seed"
	"github.com/spf13/cobra"
)

func newSeedCommand(load loader) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the starter recipe catalog",
		Long: `seed creates the ingredients and recipes of a catalog file. Existing
ingredients and recipes are left untouched, so the command can be rerun.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := load()
			if err != nil {
				return err
			}

			catalog, err := readCatalog(file)
			if err != nil {
				return err
			}

			db, err := container.OpenDatabase(cfg.Database, log.Logger)
			if err != nil {
				return err
			}
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			if cfg.Database.AutoMigrate {
				if err := container.Migrate(cfg.Database, db, log.Logger); err != nil {
					return err
				}
			}

			seeder := seed.NewSeeder(gormrepo.NewIngredientRepository(db), gormrepo.NewRecipeRepository(db), log.Logger)
			res, err := seeder.Run(cmd.Context(), catalog)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %d ingredients and %d recipes, skipped %d recipes\n",
				res.Ingredients, res.Recipes, res.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "catalog YAML file (default is the built-in catalog)")
	return cmd
}

func readCatalog(path string) (*seed.Catalog, error) {
	if path == "" {
		return seed.Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return seed.Parse(f)
}

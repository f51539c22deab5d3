// Package seed loads the starter catalog of ingredients and recipes
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"

	"github.com/foodtrack/api/internal/domain/ingredient"
	"github.com/foodtrack/api/internal/domain/recipe"
	"github.com/foodtrack/api/internal/ports/outbound"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog is the YAML document of a seed file
type Catalog struct {
	Ingredients []IngredientSpec `yaml:"ingredients"`
	Recipes     []RecipeSpec     `yaml:"recipes"`
}

// IngredientSpec describes one catalog ingredient
type IngredientSpec struct {
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
	Unit     string `yaml:"unit"`
}

// RecipeSpec describes one catalog recipe; ingredients are referenced by name
type RecipeSpec struct {
	Title       string          `yaml:"title"`
	Description string          `yaml:"description"`
	ImageURL    string          `yaml:"imageUrl"`
	PrepTime    int             `yaml:"prepTime"`
	CookTime    int             `yaml:"cookTime"`
	Difficulty  string          `yaml:"difficulty"`
	Servings    int             `yaml:"servings"`
	Adaptable   *bool           `yaml:"isAdaptable"`
	Tags        []string        `yaml:"tags"`
	Tools       []string        `yaml:"tools"`
	DietTypes   []string        `yaml:"dietTypes"`
	Nutrition   NutritionSpec   `yaml:"nutrition"`
	Ingredients []RecipeLineRef `yaml:"ingredients"`
	Steps       []string        `yaml:"steps"`
}

// NutritionSpec holds optional per-serving nutrition facts
type NutritionSpec struct {
	Calories      *int     `yaml:"calories"`
	Carbohydrates *float64 `yaml:"carbohydrates"`
	Fats          *float64 `yaml:"fats"`
	Proteins      *float64 `yaml:"proteins"`
	Fibers        *float64 `yaml:"fibers"`
}

// RecipeLineRef is one ingredient line of a seeded recipe
type RecipeLineRef struct {
	Name     string  `yaml:"name"`
	Quantity float64 `yaml:"quantity"`
	Unit     string  `yaml:"unit"`
	Optional bool    `yaml:"optional"`
}

// Parse decodes a catalog document
func Parse(r io.Reader) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("parse seed catalog: %w", err)
	}
	return &c, nil
}

// Default returns the embedded starter catalog
func Default() (*Catalog, error) {
	return Parse(bytes.NewReader(defaultCatalog))
}

// Result counts what a seeding run created
type Result struct {
	Ingredients int
	Recipes     int
	Skipped     int
}

// Seeder writes a catalog through the repositories
type Seeder struct {
	ingredients outbound.IngredientRepository
	recipes     outbound.RecipeRepository
	logger      *zap.Logger
}

// NewSeeder creates a seeder
func NewSeeder(ingredients outbound.IngredientRepository, recipes outbound.RecipeRepository, logger *zap.Logger) *Seeder {
	return &Seeder{
		ingredients: ingredients,
		recipes:     recipes,
		logger:      logger.Named("seed"),
	}
}

// Run creates the catalog's missing ingredients and recipes. Existing
// ingredients are matched by name and recipes by slug, so runs are idempotent.
func (s *Seeder) Run(ctx context.Context, c *Catalog) (Result, error) {
	var res Result

	ids := make(map[string]*ingredient.Ingredient, len(c.Ingredients))
	for _, spec := range c.Ingredients {
		ing, created, err := s.ensureIngredient(ctx, spec)
		if err != nil {
			return res, err
		}
		if created {
			res.Ingredients++
		}
		ids[spec.Name] = ing
	}

	for _, spec := range c.Recipes {
		created, err := s.ensureRecipe(ctx, spec, ids)
		if err != nil {
			return res, fmt.Errorf("recipe %q: %w", spec.Title, err)
		}
		if created {
			res.Recipes++
		} else {
			res.Skipped++
		}
	}

	s.logger.Info("Catalog seeded",
		zap.Int("ingredients_created", res.Ingredients),
		zap.Int("recipes_created", res.Recipes),
		zap.Int("recipes_skipped", res.Skipped),
	)
	return res, nil
}

func (s *Seeder) ensureIngredient(ctx context.Context, spec IngredientSpec) (*ingredient.Ingredient, bool, error) {
	existing, err := s.ingredients.FindByName(ctx, spec.Name)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	ing, err := ingredient.New(spec.Name, ingredient.Category(spec.Category), recipe.Unit(spec.Unit))
	if err != nil {
		return nil, false, fmt.Errorf("ingredient %q: %w", spec.Name, err)
	}
	if err := s.ingredients.Create(ctx, ing); err != nil {
		return nil, false, fmt.Errorf("ingredient %q: %w", spec.Name, err)
	}
	return ing, true, nil
}

func (s *Seeder) ensureRecipe(ctx context.Context, spec RecipeSpec, known map[string]*ingredient.Ingredient) (bool, error) {
	details, err := s.details(ctx, spec, known)
	if err != nil {
		return false, err
	}
	entity, err := recipe.NewRecipe(details)
	if err != nil {
		return false, err
	}

	existing, err := s.recipes.FindBySlug(ctx, entity.Slug())
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}
	return true, s.recipes.Create(ctx, entity)
}

func (s *Seeder) details(ctx context.Context, spec RecipeSpec, known map[string]*ingredient.Ingredient) (recipe.Details, error) {
	adaptable := true
	if spec.Adaptable != nil {
		adaptable = *spec.Adaptable
	}

	d := recipe.Details{
		Title:       spec.Title,
		Description: spec.Description,
		ImageURL:    spec.ImageURL,
		PrepTime:    spec.PrepTime,
		CookTime:    spec.CookTime,
		Difficulty:  recipe.Difficulty(spec.Difficulty),
		Servings:    spec.Servings,
		IsAdaptable: adaptable,
		Tags:        spec.Tags,
		Tools:       spec.Tools,
		DietTypes:   make([]recipe.DietType, 0, len(spec.DietTypes)),
		Nutrition: recipe.Nutrition{
			Calories:      spec.Nutrition.Calories,
			Carbohydrates: spec.Nutrition.Carbohydrates,
			Fats:          spec.Nutrition.Fats,
			Proteins:      spec.Nutrition.Proteins,
			Fibers:        spec.Nutrition.Fibers,
		},
		Ingredients: make([]recipe.IngredientLine, 0, len(spec.Ingredients)),
		Steps:       make([]recipe.Step, 0, len(spec.Steps)),
	}
	for _, diet := range spec.DietTypes {
		d.DietTypes = append(d.DietTypes, recipe.DietType(diet))
	}
	for i, instruction := range spec.Steps {
		d.Steps = append(d.Steps, recipe.Step{Number: i + 1, Instruction: instruction})
	}

	for _, line := range spec.Ingredients {
		ing, ok := known[line.Name]
		if !ok {
			found, err := s.ingredients.FindByName(ctx, line.Name)
			if err != nil {
				return recipe.Details{}, err
			}
			if found == nil {
				return recipe.Details{}, fmt.Errorf("unknown ingredient %q", line.Name)
			}
			ing = found
			known[line.Name] = found
		}
		d.Ingredients = append(d.Ingredients, recipe.IngredientLine{
			IngredientID: ing.ID,
			Name:         ing.Name,
			Quantity:     line.Quantity,
			Unit:         recipe.Unit(line.Unit),
			Optional:     line.Optional,
		})
	}
	return d, nil
}

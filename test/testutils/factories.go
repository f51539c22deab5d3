package testutils

import (
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/foodtrack/api/internal/domain/ingredient"
	"github.com/foodtrack/api/internal/domain/recipe"
	"github.com/foodtrack/api/internal/domain/user"
	"github.com/google/uuid"
)

// DefaultSeed keeps generated data stable across runs
const DefaultSeed = 42

// Factory builds valid domain objects from a seeded faker
type Factory struct {
	faker *gofakeit.Faker
}

// NewFactory creates a factory with a seeded faker
func NewFactory(seed int64) *Factory {
	return &Factory{faker: gofakeit.New(seed)}
}

// Ingredient returns a stored-looking ingredient in category
func (f *Factory) Ingredient(category ingredient.Category) *ingredient.Ingredient {
	return &ingredient.Ingredient{
		ID:          uuid.New(),
		Name:        f.faker.Noun() + " " + f.faker.LetterN(4),
		Category:    category,
		DefaultUnit: recipe.UnitGram,
		CreatedAt:   time.Now().UTC(),
	}
}

// User returns a registered user with the given password
func (f *Factory) User(password string) *user.User {
	u, err := user.NewUser(f.faker.Email(), password, f.faker.FirstName(), f.faker.LastName())
	if err != nil {
		panic(err)
	}
	return u
}

// RecipeBuilder provides a fluent interface for building test recipes
type RecipeBuilder struct {
	slug      string
	details   recipe.Details
	createdAt time.Time
}

// Recipe starts a builder with valid random attributes
func (f *Factory) Recipe() *RecipeBuilder {
	title := f.faker.Dessert() + " " + f.faker.LetterN(6)
	return &RecipeBuilder{
		slug: recipe.Slugify(title),
		details: recipe.Details{
			Title:       title,
			Description: f.faker.Sentence(8),
			PrepTime:    f.faker.Number(5, 30),
			CookTime:    f.faker.Number(0, 30),
			Difficulty:  recipe.DifficultyEasy,
			Servings:    4,
			IsAdaptable: true,
			Tags:        []string{},
			Tools:       []string{},
			DietTypes:   []recipe.DietType{},
			Ingredients: []recipe.IngredientLine{},
			Steps:       []recipe.Step{{Number: 1, Instruction: f.faker.Sentence(6)}},
		},
	}
}

// WithTitle sets the recipe title and slug
func (b *RecipeBuilder) WithTitle(title string) *RecipeBuilder {
	b.details.Title = title
	b.slug = recipe.Slugify(title)
	return b
}

// WithTimes sets prep and cook time in minutes
func (b *RecipeBuilder) WithTimes(prep, cook int) *RecipeBuilder {
	b.details.PrepTime = prep
	b.details.CookTime = cook
	return b
}

// WithDifficulty sets the difficulty
func (b *RecipeBuilder) WithDifficulty(d recipe.Difficulty) *RecipeBuilder {
	b.details.Difficulty = d
	return b
}

// WithServings sets the base servings
func (b *RecipeBuilder) WithServings(n int) *RecipeBuilder {
	b.details.Servings = n
	return b
}

// WithTags sets the tags
func (b *RecipeBuilder) WithTags(tags ...string) *RecipeBuilder {
	b.details.Tags = tags
	return b
}

// WithTools sets the required tools
func (b *RecipeBuilder) WithTools(tools ...string) *RecipeBuilder {
	b.details.Tools = tools
	return b
}

// WithDiets sets the diet types
func (b *RecipeBuilder) WithDiets(diets ...recipe.DietType) *RecipeBuilder {
	b.details.DietTypes = diets
	return b
}

// WithIngredient appends an ingredient line
func (b *RecipeBuilder) WithIngredient(id uuid.UUID, quantity float64, unit recipe.Unit) *RecipeBuilder {
	b.details.Ingredients = append(b.details.Ingredients, recipe.IngredientLine{
		IngredientID: id,
		Quantity:     quantity,
		Unit:         unit,
	})
	return b
}

// Details returns the attributes built so far
func (b *RecipeBuilder) Details() recipe.Details {
	return b.details
}

// Build returns a stored-looking recipe
func (b *RecipeBuilder) Build() *recipe.Recipe {
	created := b.createdAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	return recipe.Rehydrate(uuid.New(), b.slug, b.details, created, created)
}

// CreatedAt backdates the recipe
func (b *RecipeBuilder) CreatedAt(t time.Time) *RecipeBuilder {
	b.createdAt = t.UTC()
	return b
}

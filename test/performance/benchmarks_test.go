//go:build performance
// +build performance

// Package performance benchmarks the planning heuristics and catalog queries
package performance

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"testing"
	"time"

	"github.com/foodtrack/api/internal/domain/ingredient"
	"github.com/foodtrack/api/internal/domain/planning"
	"github.com/foodtrack/api/internal/domain/recipe"
	gormrepo "github.com/foodtrack/api/internal/infrastructure/persistence/gorm"
	"github.com/foodtrack/api/internal/infrastructure/persistence/sqlite"
	"github.com/foodtrack/api/test/testutils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// Catalog sizes
const (
	SmallDataset  = 100
	MediumDataset = 1000
	LargeDataset  = 10000

	// MaxSelectionTime bounds one in-memory selection over the large catalog
	MaxSelectionTime = 50 * time.Millisecond
	// MaxMemoryIncreaseMB bounds heap growth across repeated generations
	MaxMemoryIncreaseMB = 50
)

var difficulties = []recipe.Difficulty{recipe.DifficultyEasy, recipe.DifficultyMedium, recipe.DifficultyHard}

// catalog builds n recipes spread across difficulties, times, tags and tools
func catalog(n int, ingredients []uuid.UUID) planning.Pool {
	f := testutils.NewFactory(testutils.DefaultSeed)
	pool := make(planning.Pool, 0, n)
	for i := 0; i < n; i++ {
		b := f.Recipe().
			WithTitle(fmt.Sprintf("Recipe %05d", i)).
			WithDifficulty(difficulties[i%len(difficulties)]).
			WithTimes(5+i%60, 5+i%90).
			WithServings(2+i%6).
			WithTags(fmt.Sprintf("tag-%d", i%25))
		if i%4 == 0 {
			b = b.WithTools("oven")
		}
		if i%3 == 0 {
			b = b.WithDiets(recipe.DietVegetarian)
		}
		for j := 0; j < 6 && len(ingredients) > 0; j++ {
			b = b.WithIngredient(ingredients[(i+j)%len(ingredients)], float64(50+j*25), recipe.UnitGram)
		}
		pool = append(pool, b.Build())
	}
	return pool
}

func ingredientIDs(n int) []uuid.UUID {
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = uuid.New()
	}
	return ids
}

func BenchmarkSelect(b *testing.B) {
	for _, size := range []int{SmallDataset, MediumDataset, LargeDataset} {
		pool := catalog(size, nil)
		selector := planning.NewSelector(pool, planning.WithRand(rand.New(rand.NewPCG(1, 2))))
		req := planning.Request{
			Count:         7,
			DietTypes:     []recipe.DietType{recipe.DietVegetarian},
			MaxDifficulty: recipe.DifficultyMedium,
			MaxTotalTime:  45,
		}

		b.Run(fmt.Sprintf("catalog=%d", size), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := selector.Select(context.Background(), req); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkAggregate(b *testing.B) {
	pool := catalog(21, ingredientIDs(40))
	entries := make([]planning.PlanEntry, len(pool))
	for i, r := range pool {
		entries[i] = planning.PlanEntry{Recipe: r, Servings: 4}
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := planning.Aggregate(entries); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSlugify(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = recipe.Slugify("Tarte fine aux pommes et à la cannelle, façon grand-mère")
	}
}

// BenchmarkFindEligible measures the strict-stage catalog query on sqlite
func BenchmarkFindEligible(b *testing.B) {
	db := testutils.NewSQLiteDB(b)
	require.NoError(b, sqlite.Migrate(db))

	ctx := context.Background()
	ingredients := gormrepo.NewIngredientRepository(db)
	recipes := gormrepo.NewRecipeRepository(db)

	var ids []uuid.UUID
	for i := 0; i < 20; i++ {
		ing, err := ingredient.New(fmt.Sprintf("Ingredient %d", i), ingredient.CategoryPantry, recipe.UnitGram)
		require.NoError(b, err)
		require.NoError(b, ingredients.Create(ctx, ing))
		ids = append(ids, ing.ID)
	}
	for _, r := range catalog(MediumDataset, ids) {
		require.NoError(b, recipes.Create(ctx, r))
	}

	criteria := planning.Stages(planning.Request{
		Count:         7,
		MaxDifficulty: recipe.DifficultyHard,
		MaxTotalTime:  60,
	})[0].Criteria

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := recipes.FindEligible(ctx, criteria, 7*planning.OverFetchFactor); err != nil {
			b.Fatal(err)
		}
	}
}

func TestSelect_LargeCatalogWithinBudget(t *testing.T) {
	// Arrange
	pool := catalog(LargeDataset, nil)
	selector := planning.NewSelector(pool)
	req := planning.Request{Count: 21, MaxDifficulty: recipe.DifficultyHard, MaxTotalTime: 240}

	// Act
	started := time.Now()
	result, err := selector.Select(context.Background(), req)
	elapsed := time.Since(started)

	// Assert
	require.NoError(t, err)
	require.Len(t, result.Recipes, 21)
	require.Less(t, elapsed, MaxSelectionTime)
}

func TestSelect_MemoryIsReleased(t *testing.T) {
	pool := catalog(MediumDataset, nil)
	selector := planning.NewSelector(pool)
	req := planning.Request{Count: 7, MaxDifficulty: recipe.DifficultyHard, MaxTotalTime: 120}

	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	for i := 0; i < 1000; i++ {
		_, err := selector.Select(context.Background(), req)
		require.NoError(t, err)
	}
	runtime.GC()
	runtime.ReadMemStats(&after)

	growth := int64(after.HeapAlloc) - int64(before.HeapAlloc)
	require.Less(t, growth, int64(MaxMemoryIncreaseMB)<<20)
}

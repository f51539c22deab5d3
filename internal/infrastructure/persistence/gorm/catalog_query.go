package gorm

import (
	"math"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/foodtrack/api/internal/domain/planning"
	"github.com/foodtrack/api/internal/ports/outbound"
)

// Queries are rendered with ? placeholders; gorm rebinds them per dialect.

func hasDiet(diet string) sq.Sqlizer {
	return sq.Expr("EXISTS (SELECT 1 FROM recipe_diet_types d WHERE d.recipe_id = r.id AND d.diet_type = ?)", diet)
}

// hasSome matches recipes with at least one child row whose column is in values
func hasSome(table, column string, values []string) sq.Sqlizer {
	sub := sq.Select("1").
		From(table + " c").
		Where("c.recipe_id = r.id").
		Where(sq.Eq{"c." + column: values})
	return existsOf(sub)
}

func existsOf(sub sq.SelectBuilder) sq.Sqlizer {
	sql, args, err := sub.ToSql()
	if err != nil {
		return sq.Expr("1 = 0")
	}
	return sq.Expr("EXISTS ("+sql+")", args...)
}

const noTools = "NOT EXISTS (SELECT 1 FROM recipe_tools t WHERE t.recipe_id = r.id)"

// eligibleQuery selects up to limit random recipe ids satisfying c
func eligibleQuery(c planning.Criteria, limit int) sq.SelectBuilder {
	q := sq.Select("r.id").From("recipes r")

	for _, diet := range dedupe(dietsToStrings(c.DietTypes)) {
		q = q.Where(hasDiet(diet))
	}

	difficulties := make([]string, 0, 3)
	for _, d := range c.MaxDifficulty.AtMost() {
		difficulties = append(difficulties, string(d))
	}
	q = q.Where(sq.Eq{"r.difficulty": difficulties})

	// total_time is a 32-bit column; larger limits mean no limit
	if c.MaxTotalTime < math.MaxInt32 {
		q = q.Where(sq.LtOrEq{"r.total_time": c.MaxTotalTime})
	}

	if c.StrictTools {
		if len(c.Tools) == 0 {
			q = q.Where(noTools)
		} else {
			q = q.Where(sq.Or{sq.Expr(noTools), hasSome("recipe_tools", "tool", c.Tools)})
		}
	}

	return q.OrderBy("RANDOM()").Limit(uint64(limit))
}

// anyQuery selects the first limit recipe ids in catalog order
func anyQuery(limit int) sq.SelectBuilder {
	return sq.Select("r.id").From("recipes r").OrderBy("r.created_at ASC", "r.id ASC").Limit(uint64(limit))
}

// ratingsJoin is the per-recipe review aggregate
const ratingsJoin = "(SELECT recipe_id, AVG(rating) AS avg_rating, COUNT(*) AS review_count FROM reviews GROUP BY recipe_id) rt ON rt.recipe_id = r.id"

// listFilter applies the listing filters of query to base
func listFilter(base sq.SelectBuilder, query outbound.RecipeQuery) sq.SelectBuilder {
	if search := strings.ToLower(strings.TrimSpace(query.Search)); search != "" {
		pattern := "%" + escapeLike(search) + "%"
		base = base.Where(sq.Or{
			sq.Expr("LOWER(r.title) LIKE ? ESCAPE '\\'", pattern),
			sq.Expr("LOWER(r.description) LIKE ? ESCAPE '\\'", pattern),
		})
	}
	for _, diet := range dedupe(dietsToStrings(query.DietTypes)) {
		base = base.Where(hasDiet(diet))
	}
	if query.Difficulty != nil {
		base = base.Where(sq.Eq{"r.difficulty": string(*query.Difficulty)})
	}
	if query.MaxPrepTime != nil {
		base = base.Where(sq.LtOrEq{"r.prep_time": *query.MaxPrepTime})
	}
	if len(query.Tools) > 0 {
		base = base.Where(hasSome("recipe_tools", "tool", query.Tools))
	}
	if len(query.Tags) > 0 {
		base = base.Where(hasSome("recipe_tags", "tag", query.Tags))
	}
	return base
}

// listQuery selects one page of recipe ids in the requested order
func listQuery(query outbound.RecipeQuery) sq.SelectBuilder {
	q := listFilter(sq.Select("r.id").From("recipes r").LeftJoin(ratingsJoin), query)

	switch query.SortBy {
	case outbound.SortByTitle:
		q = q.OrderBy("r.title ASC", "r.id ASC")
	case outbound.SortByRating:
		q = q.OrderBy("COALESCE(rt.avg_rating, 0) DESC", "COALESCE(rt.review_count, 0) DESC", "r.created_at DESC", "r.id ASC")
	default:
		q = q.OrderBy("r.created_at DESC", "r.id ASC")
	}

	if query.Limit > 0 {
		q = q.Limit(uint64(query.Limit))
	}
	if query.Offset > 0 {
		q = q.Offset(uint64(query.Offset))
	}
	return q
}

// countQuery counts recipes matching the listing filters
func countQuery(query outbound.RecipeQuery) sq.SelectBuilder {
	return listFilter(sq.Select("COUNT(*)").From("recipes r"), query)
}

// ratingsQuery aggregates reviews for the given recipe ids
func ratingsQuery(ids []string) sq.SelectBuilder {
	return sq.Select("recipe_id", "CAST(AVG(rating) AS FLOAT) AS avg_rating", "COUNT(*) AS review_count").
		From("reviews").
		Where(sq.Eq{"recipe_id": ids}).
		GroupBy("recipe_id")
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

package recipe

import (
	"github.com/foodtrack/api/internal/domain/recipe"
	"github.com/foodtrack/api/internal/ports/inbound"
)

// ToDTO converts a recipe aggregate to its transfer object
func ToDTO(r *recipe.Recipe) inbound.RecipeDTO {
	n := r.Nutrition()
	dto := inbound.RecipeDTO{
		ID:            r.ID(),
		Title:         r.Title(),
		Slug:          r.Slug(),
		Description:   r.Description(),
		ImageURL:      r.ImageURL(),
		PrepTime:      r.PrepTime(),
		CookTime:      r.CookTime(),
		Difficulty:    r.Difficulty(),
		Servings:      r.Servings(),
		IsAdaptable:   r.IsAdaptable(),
		Tags:          r.Tags(),
		ToolsRequired: r.Tools(),
		DietTypes:     r.DietTypes(),
		Calories:      n.Calories,
		Carbohydrates: n.Carbohydrates,
		Fats:          n.Fats,
		Proteins:      n.Proteins,
		Fibers:        n.Fibers,
		Ingredients:   make([]inbound.RecipeIngredientDTO, 0, len(r.Ingredients())),
		Steps:         make([]inbound.StepDTO, 0, len(r.Steps())),
		AverageRating: r.AverageRating(),
		ReviewCount:   r.ReviewCount(),
		CreatedAt:     r.CreatedAt(),
		UpdatedAt:     r.UpdatedAt(),
	}
	for _, line := range r.Ingredients() {
		dto.Ingredients = append(dto.Ingredients, inbound.RecipeIngredientDTO{
			IngredientID: line.IngredientID,
			Name:         line.Name,
			Quantity:     line.Quantity,
			Unit:         line.Unit,
			Optional:     line.Optional,
		})
	}
	for _, step := range r.Steps() {
		dto.Steps = append(dto.Steps, inbound.StepDTO{StepNumber: step.Number, Instruction: step.Instruction})
	}
	return dto
}

// DetailsFromCommand converts a create command to recipe attributes
func DetailsFromCommand(cmd inbound.RecipeCommand) recipe.Details {
	adaptable := true
	if cmd.IsAdaptable != nil {
		adaptable = *cmd.IsAdaptable
	}
	return recipe.Details{
		Title:       cmd.Title,
		Description: cmd.Description,
		ImageURL:    cmd.ImageURL,
		PrepTime:    cmd.PrepTime,
		CookTime:    cmd.CookTime,
		Difficulty:  cmd.Difficulty,
		Servings:    cmd.Servings,
		IsAdaptable: adaptable,
		Tags:        cmd.Tags,
		Tools:       cmd.ToolsRequired,
		DietTypes:   cmd.DietTypes,
		Nutrition: recipe.Nutrition{
			Calories:      cmd.Calories,
			Carbohydrates: cmd.Carbohydrates,
			Fats:          cmd.Fats,
			Proteins:      cmd.Proteins,
			Fibers:        cmd.Fibers,
		},
		Ingredients: ingredientLines(cmd.Ingredients),
		Steps:       steps(cmd.Steps),
	}
}

func patchFromCommand(cmd inbound.UpdateRecipeCommand) recipe.Patch {
	p := recipe.Patch{
		Title:       cmd.Title,
		Description: cmd.Description,
		ImageURL:    cmd.ImageURL,
		PrepTime:    cmd.PrepTime,
		CookTime:    cmd.CookTime,
		Difficulty:  cmd.Difficulty,
		Servings:    cmd.Servings,
		IsAdaptable: cmd.IsAdaptable,
		Tags:        cmd.Tags,
		Tools:       cmd.ToolsRequired,
		DietTypes:   cmd.DietTypes,
	}
	if cmd.Calories != nil || cmd.Carbohydrates != nil || cmd.Fats != nil || cmd.Proteins != nil || cmd.Fibers != nil {
		p.Nutrition = &recipe.Nutrition{
			Calories:      cmd.Calories,
			Carbohydrates: cmd.Carbohydrates,
			Fats:          cmd.Fats,
			Proteins:      cmd.Proteins,
			Fibers:        cmd.Fibers,
		}
	}
	if cmd.Ingredients != nil {
		p.Ingredients = ingredientLines(cmd.Ingredients)
	}
	if cmd.Steps != nil {
		p.Steps = steps(cmd.Steps)
	}
	return p
}

func ingredientLines(in []inbound.RecipeIngredientInput) []recipe.IngredientLine {
	lines := make([]recipe.IngredientLine, 0, len(in))
	for _, l := range in {
		lines = append(lines, recipe.IngredientLine{
			IngredientID: l.IngredientID,
			Quantity:     l.Quantity,
			Unit:         l.Unit,
			Optional:     l.Optional,
		})
	}
	return lines
}

func steps(in []inbound.StepInput) []recipe.Step {
	out := make([]recipe.Step, 0, len(in))
	for _, s := range in {
		out = append(out, recipe.Step{Number: s.StepNumber, Instruction: s.Instruction})
	}
	return out
}

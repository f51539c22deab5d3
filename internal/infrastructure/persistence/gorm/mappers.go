package gorm

import (
	"github.com/foodtrack/api/internal/domain/ingredient"
	"github.com/foodtrack/api/internal/domain/mealplan"
	"github.com/foodtrack/api/internal/domain/recipe"
	"github.com/foodtrack/api/internal/domain/review"
	"github.com/foodtrack/api/internal/domain/shoppinglist"
	"github.com/foodtrack/api/internal/domain/submission"
	"github.com/foodtrack/api/internal/domain/user"
	"github.com/google/uuid"
)

// UserToModel converts domain user to GORM model
func UserToModel(u *user.User) *UserModel {
	snap := u.Snapshot()
	settings := snap.Settings

	model := &UserModel{
		ID:              snap.ID,
		Email:           snap.Email,
		FirstName:       snap.FirstName,
		LastName:        snap.LastName,
		PasswordHash:    snap.PasswordHash,
		Role:            string(snap.Role),
		HasSeenTutorial: snap.HasSeenTutorial,
		HouseholdSize:   settings.HouseholdSize,
		DietPreferences: dietsToStrings(settings.DietPreferences),
		MaxPrepTime:     settings.MaxPrepTime,
		ToolsAvailable:  StringSlice(settings.ToolsAvailable),
		CreatedAt:       snap.CreatedAt,
		UpdatedAt:       snap.UpdatedAt,
	}
	if settings.DifficultyPreference != nil {
		d := string(*settings.DifficultyPreference)
		model.Difficulty = &d
	}
	return model
}

// ModelToUser converts GORM model to domain user
func ModelToUser(model *UserModel) *user.User {
	settings := user.Settings{
		HouseholdSize:   model.HouseholdSize,
		DietPreferences: stringsToDiets(model.DietPreferences),
		MaxPrepTime:     model.MaxPrepTime,
		ToolsAvailable:  []string(model.ToolsAvailable),
	}
	if settings.ToolsAvailable == nil {
		settings.ToolsAvailable = []string{}
	}
	if model.Difficulty != nil {
		d := recipe.Difficulty(*model.Difficulty)
		settings.DifficultyPreference = &d
	}

	return user.Rehydrate(user.Snapshot{
		ID:              model.ID,
		Email:           model.Email,
		FirstName:       model.FirstName,
		LastName:        model.LastName,
		PasswordHash:    model.PasswordHash,
		Role:            user.Role(model.Role),
		HasSeenTutorial: model.HasSeenTutorial,
		Settings:        settings,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	})
}

// IngredientToModel converts domain ingredient to GORM model
func IngredientToModel(i *ingredient.Ingredient) *IngredientModel {
	return &IngredientModel{
		ID:          i.ID,
		NameKey:     nameKey(i.Name),
		Name:        i.Name,
		Category:    string(i.Category),
		DefaultUnit: string(i.DefaultUnit),
		CreatedAt:   i.CreatedAt,
	}
}

// ModelToIngredient converts GORM model to domain ingredient
func ModelToIngredient(model *IngredientModel) *ingredient.Ingredient {
	return &ingredient.Ingredient{
		ID:          model.ID,
		Name:        model.Name,
		Category:    ingredient.Category(model.Category),
		DefaultUnit: recipe.Unit(model.DefaultUnit),
		CreatedAt:   model.CreatedAt,
	}
}

// RecipeToModel converts domain recipe to GORM model with its child rows
func RecipeToModel(r *recipe.Recipe) *RecipeModel {
	n := r.Nutrition()
	model := &RecipeModel{
		ID:            r.ID(),
		Slug:          r.Slug(),
		Title:         r.Title(),
		Description:   r.Description(),
		ImageURL:      r.ImageURL(),
		PrepTime:      r.PrepTime(),
		CookTime:      r.CookTime(),
		TotalTime:     r.TotalTime(),
		Difficulty:    string(r.Difficulty()),
		Servings:      r.Servings(),
		IsAdaptable:   r.IsAdaptable(),
		Calories:      n.Calories,
		Carbohydrates: n.Carbohydrates,
		Fats:          n.Fats,
		Proteins:      n.Proteins,
		Fibers:        n.Fibers,
		CreatedAt:     r.CreatedAt(),
		UpdatedAt:     r.UpdatedAt(),
	}
	model.Ingredients, model.Steps, model.Diets, model.Tools, model.Tags = recipeChildren(r)
	return model
}

func recipeChildren(r *recipe.Recipe) ([]RecipeIngredientModel, []RecipeStepModel, []RecipeDietModel, []RecipeToolModel, []RecipeTagModel) {
	id := r.ID()

	lines := make([]RecipeIngredientModel, 0, len(r.Ingredients()))
	for i, line := range r.Ingredients() {
		lines = append(lines, RecipeIngredientModel{
			ID:           uuid.New(),
			RecipeID:     id,
			IngredientID: line.IngredientID,
			Position:     i,
			Quantity:     line.Quantity,
			Unit:         string(line.Unit),
			Optional:     line.Optional,
		})
	}

	steps := make([]RecipeStepModel, 0, len(r.Steps()))
	for _, s := range r.Steps() {
		steps = append(steps, RecipeStepModel{ID: uuid.New(), RecipeID: id, Number: s.Number, Instruction: s.Instruction})
	}

	diets := make([]RecipeDietModel, 0, len(r.DietTypes()))
	for _, d := range dedupe(dietsToStrings(r.DietTypes())) {
		diets = append(diets, RecipeDietModel{RecipeID: id, DietType: d})
	}

	tools := make([]RecipeToolModel, 0, len(r.Tools()))
	for _, t := range dedupe(r.Tools()) {
		tools = append(tools, RecipeToolModel{RecipeID: id, Tool: t})
	}

	tags := make([]RecipeTagModel, 0, len(r.Tags()))
	for i, t := range dedupe(r.Tags()) {
		tags = append(tags, RecipeTagModel{RecipeID: id, Tag: t, Position: i})
	}

	return lines, steps, diets, tools, tags
}

// ModelToRecipe converts GORM model to domain recipe.
// Ingredient names are filled when the Ingredient association is loaded.
func ModelToRecipe(model *RecipeModel) *recipe.Recipe {
	details := recipe.Details{
		Title:       model.Title,
		Description: model.Description,
		ImageURL:    model.ImageURL,
		PrepTime:    model.PrepTime,
		CookTime:    model.CookTime,
		Difficulty:  recipe.Difficulty(model.Difficulty),
		Servings:    model.Servings,
		IsAdaptable: model.IsAdaptable,
		Nutrition: recipe.Nutrition{
			Calories:      model.Calories,
			Carbohydrates: model.Carbohydrates,
			Fats:          model.Fats,
			Proteins:      model.Proteins,
			Fibers:        model.Fibers,
		},
		Ingredients: make([]recipe.IngredientLine, 0, len(model.Ingredients)),
		Steps:       make([]recipe.Step, 0, len(model.Steps)),
		DietTypes:   make([]recipe.DietType, 0, len(model.Diets)),
		Tools:       make([]string, 0, len(model.Tools)),
		Tags:        make([]string, 0, len(model.Tags)),
	}

	for _, line := range model.Ingredients {
		details.Ingredients = append(details.Ingredients, recipe.IngredientLine{
			IngredientID: line.IngredientID,
			Name:         line.Ingredient.Name,
			Quantity:     line.Quantity,
			Unit:         recipe.Unit(line.Unit),
			Optional:     line.Optional,
		})
	}
	for _, s := range model.Steps {
		details.Steps = append(details.Steps, recipe.Step{Number: s.Number, Instruction: s.Instruction})
	}
	for _, d := range model.Diets {
		details.DietTypes = append(details.DietTypes, recipe.DietType(d.DietType))
	}
	for _, t := range model.Tools {
		details.Tools = append(details.Tools, t.Tool)
	}
	for _, t := range model.Tags {
		details.Tags = append(details.Tags, t.Tag)
	}

	return recipe.Rehydrate(model.ID, model.Slug, details, model.CreatedAt, model.UpdatedAt)
}

// MealPlanToModel converts domain meal plan to GORM model
func MealPlanToModel(p *mealplan.MealPlan) *MealPlanModel {
	model := &MealPlanModel{
		ID:        p.ID,
		UserID:    p.UserID,
		Title:     p.Title,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
		Entries:   make([]MealPlanRecipeModel, 0, len(p.Entries)),
	}
	for i, e := range p.Entries {
		model.Entries = append(model.Entries, MealPlanRecipeModel{
			ID:         e.ID,
			MealPlanID: p.ID,
			RecipeID:   e.RecipeID,
			Position:   i,
			Servings:   e.Servings,
			PlannedFor: e.PlannedFor,
		})
	}
	return model
}

// ModelToMealPlan converts GORM model to domain meal plan
func ModelToMealPlan(model *MealPlanModel) *mealplan.MealPlan {
	plan := &mealplan.MealPlan{
		ID:        model.ID,
		UserID:    model.UserID,
		Title:     model.Title,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
		Entries:   make([]mealplan.Entry, 0, len(model.Entries)),
	}
	for _, e := range model.Entries {
		plan.Entries = append(plan.Entries, mealplan.Entry{
			ID:         e.ID,
			RecipeID:   e.RecipeID,
			Servings:   e.Servings,
			PlannedFor: e.PlannedFor,
		})
	}
	return plan
}

// ShoppingListToModel converts domain shopping list to GORM model
func ShoppingListToModel(l *shoppinglist.ShoppingList) *ShoppingListModel {
	model := &ShoppingListModel{
		ID:         l.ID,
		UserID:     l.UserID,
		MealPlanID: l.MealPlanID,
		Title:      l.Title,
		Status:     string(l.Status),
		CreatedAt:  l.CreatedAt,
		UpdatedAt:  l.UpdatedAt,
		Items:      make([]ShoppingListItemModel, 0, len(l.Items)),
	}
	for i, item := range l.Items {
		model.Items = append(model.Items, ShoppingListItemModel{
			ID:             item.ID,
			ShoppingListID: l.ID,
			IngredientID:   item.IngredientID,
			Position:       i,
			Quantity:       item.Quantity,
			Unit:           string(item.Unit),
			Checked:        item.Checked,
		})
	}
	return model
}

// ModelToShoppingList converts GORM model to domain shopping list
func ModelToShoppingList(model *ShoppingListModel) *shoppinglist.ShoppingList {
	list := &shoppinglist.ShoppingList{
		ID:         model.ID,
		UserID:     model.UserID,
		MealPlanID: model.MealPlanID,
		Title:      model.Title,
		Status:     shoppinglist.Status(model.Status),
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
		Items:      make([]shoppinglist.Item, 0, len(model.Items)),
	}
	for _, item := range model.Items {
		list.Items = append(list.Items, shoppinglist.Item{
			ID:           item.ID,
			IngredientID: item.IngredientID,
			Quantity:     item.Quantity,
			Unit:         recipe.Unit(item.Unit),
			Checked:      item.Checked,
		})
	}
	return list
}

// ReviewToModel converts domain review to GORM model
func ReviewToModel(r *review.Review) *ReviewModel {
	return &ReviewModel{
		ID:        r.ID,
		UserID:    r.UserID,
		RecipeID:  r.RecipeID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
}

// ModelToReview converts GORM model to domain review
func ModelToReview(model *ReviewModel) *review.Review {
	return &review.Review{
		ID:        model.ID,
		UserID:    model.UserID,
		RecipeID:  model.RecipeID,
		Rating:    model.Rating,
		Comment:   model.Comment,
		CreatedAt: model.CreatedAt,
	}
}

// ReportToModel converts domain report to GORM model
func ReportToModel(r *review.Report) *ReviewReportModel {
	return &ReviewReportModel{
		ID:            r.ID,
		ReviewID:      r.ReviewID,
		UserID:        r.UserID,
		DeletionToken: r.DeletionToken,
		CreatedAt:     r.CreatedAt,
	}
}

// ModelToReport converts GORM model to domain report
func ModelToReport(model *ReviewReportModel) *review.Report {
	return &review.Report{
		ID:            model.ID,
		ReviewID:      model.ReviewID,
		UserID:        model.UserID,
		DeletionToken: model.DeletionToken,
		CreatedAt:     model.CreatedAt,
	}
}

// detailsDoc is the stored JSON form of proposed recipe details
type detailsDoc struct {
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	ImageURL      string    `json:"imageUrl,omitempty"`
	PrepTime      int       `json:"prepTime"`
	CookTime      int       `json:"cookTime"`
	Difficulty    string    `json:"difficulty"`
	Servings      int       `json:"servings"`
	IsAdaptable   bool      `json:"isAdaptable"`
	Tags          []string  `json:"tags"`
	Tools         []string  `json:"tools"`
	DietTypes     []string  `json:"dietTypes"`
	Calories      *int      `json:"calories,omitempty"`
	Carbohydrates *float64  `json:"carbohydrates,omitempty"`
	Fats          *float64  `json:"fats,omitempty"`
	Proteins      *float64  `json:"proteins,omitempty"`
	Fibers        *float64  `json:"fibers,omitempty"`
	Steps         []stepDoc `json:"steps"`
}

type stepDoc struct {
	Number      int    `json:"number"`
	Instruction string `json:"instruction"`
}

// submitLine is the stored JSON form of a proposed ingredient line
type submitLine struct {
	ID             uuid.UUID  `json:"id"`
	IngredientID   *uuid.UUID `json:"ingredientId,omitempty"`
	IngredientName string     `json:"ingredientName,omitempty"`
	Quantity       float64    `json:"quantity"`
	Unit           string     `json:"unit"`
	Optional       bool       `json:"optional"`
}

// SubmissionToModel converts domain submission to GORM model
func SubmissionToModel(s *submission.Submission) *SubmissionModel {
	d := s.Details
	doc := detailsDoc{
		Title:         d.Title,
		Description:   d.Description,
		ImageURL:      d.ImageURL,
		PrepTime:      d.PrepTime,
		CookTime:      d.CookTime,
		Difficulty:    string(d.Difficulty),
		Servings:      d.Servings,
		IsAdaptable:   d.IsAdaptable,
		Tags:          d.Tags,
		Tools:         d.Tools,
		DietTypes:     dietsToStrings(d.DietTypes),
		Calories:      d.Nutrition.Calories,
		Carbohydrates: d.Nutrition.Carbohydrates,
		Fats:          d.Nutrition.Fats,
		Proteins:      d.Nutrition.Proteins,
		Fibers:        d.Nutrition.Fibers,
		Steps:         make([]stepDoc, 0, len(d.Steps)),
	}
	for _, step := range d.Steps {
		doc.Steps = append(doc.Steps, stepDoc{Number: step.Number, Instruction: step.Instruction})
	}

	lines := make([]submitLine, 0, len(s.Lines))
	for _, l := range s.Lines {
		lines = append(lines, submitLine{
			ID:             l.ID,
			IngredientID:   l.IngredientID,
			IngredientName: l.IngredientName,
			Quantity:       l.Quantity,
			Unit:           string(l.Unit),
			Optional:       l.Optional,
		})
	}

	return &SubmissionModel{
		ID:              s.ID,
		UserID:          s.UserID,
		RecipeID:        s.RecipeID,
		Status:          string(s.Status),
		ApprovalToken:   s.ApprovalToken,
		Details:         JSONDocument[detailsDoc]{Data: doc},
		Lines:           JSONDocument[[]submitLine]{Data: lines},
		ReviewedAt:      s.ReviewedAt,
		RejectionReason: s.RejectionReason,
		CreatedAt:       s.CreatedAt,
	}
}

// ModelToSubmission converts GORM model to domain submission
func ModelToSubmission(model *SubmissionModel) *submission.Submission {
	doc := model.Details.Data
	details := recipe.Details{
		Title:       doc.Title,
		Description: doc.Description,
		ImageURL:    doc.ImageURL,
		PrepTime:    doc.PrepTime,
		CookTime:    doc.CookTime,
		Difficulty:  recipe.Difficulty(doc.Difficulty),
		Servings:    doc.Servings,
		IsAdaptable: doc.IsAdaptable,
		Tags:        nonNilStrings(doc.Tags),
		Tools:       nonNilStrings(doc.Tools),
		DietTypes:   stringsToDiets(doc.DietTypes),
		Nutrition: recipe.Nutrition{
			Calories:      doc.Calories,
			Carbohydrates: doc.Carbohydrates,
			Fats:          doc.Fats,
			Proteins:      doc.Proteins,
			Fibers:        doc.Fibers,
		},
		Steps: make([]recipe.Step, 0, len(doc.Steps)),
	}
	for _, step := range doc.Steps {
		details.Steps = append(details.Steps, recipe.Step{Number: step.Number, Instruction: step.Instruction})
	}

	lines := make([]submission.Line, 0, len(model.Lines.Data))
	for _, l := range model.Lines.Data {
		lines = append(lines, submission.Line{
			ID:             l.ID,
			IngredientID:   l.IngredientID,
			IngredientName: l.IngredientName,
			Quantity:       l.Quantity,
			Unit:           recipe.Unit(l.Unit),
			Optional:       l.Optional,
		})
	}

	return &submission.Submission{
		ID:              model.ID,
		UserID:          model.UserID,
		RecipeID:        model.RecipeID,
		Status:          submission.Status(model.Status),
		ApprovalToken:   model.ApprovalToken,
		Details:         details,
		Lines:           lines,
		ReviewedAt:      model.ReviewedAt,
		RejectionReason: model.RejectionReason,
		CreatedAt:       model.CreatedAt,
	}
}

func dietsToStrings(diets []recipe.DietType) StringSlice {
	out := make(StringSlice, 0, len(diets))
	for _, d := range diets {
		out = append(out, string(d))
	}
	return out
}

func stringsToDiets(values []string) []recipe.DietType {
	out := make([]recipe.DietType, 0, len(values))
	for _, v := range values {
		out = append(out, recipe.DietType(v))
	}
	return out
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// dedupe drops repeated values, keeping first occurrence order
func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

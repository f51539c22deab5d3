package recipe

import "errors"

// Domain errors for recipe operations

var (
	ErrTitleRequired     = errors.New("recipe title is required")
	ErrTitleTooLong      = errors.New("recipe title must not exceed 200 characters")
	ErrInvalidPrepTime   = errors.New("prep time must be at least 1 minute")
	ErrInvalidCookTime   = errors.New("cook time cannot be negative")
	ErrInvalidServings   = errors.New("servings must be greater than 0")
	ErrInvalidDifficulty = errors.New("difficulty must be EASY, MEDIUM or HARD")
	ErrInvalidDietType   = errors.New("diet type must be VEGETARIAN, VEGAN or PESCATARIAN")
	ErrInvalidUnit       = errors.New("unknown unit")
	ErrMissingIngredient = errors.New("ingredient line needs an ingredient")
	ErrNegativeQuantity  = errors.New("ingredient quantity cannot be negative")
	ErrInvalidStepNumber = errors.New("step number must be at least 1")
	ErrEmptyInstruction  = errors.New("step instruction is required")
	ErrEmptySlug         = errors.New("title does not produce a usable slug")
	ErrRecipeNotFound    = errors.New("recipe not found")
	ErrSlugAlreadyExists = errors.New("a recipe with this title already exists")
)

package inbound

import (
	"context"
	"io"
	"time"

	"github.com/foodtrack/api/internal/domain/recipe"
	"github.com/google/uuid"
)

// SubmissionService defines the use cases for user-proposed recipes
type SubmissionService interface {
	Submit(ctx context.Context, userID uuid.UUID, cmd SubmitRecipeCommand) (*SubmissionDTO, error)
	GetByToken(ctx context.Context, token string) (*SubmissionDTO, error)
	Approve(ctx context.Context, token string) (*RecipeDTO, error)
	Reject(ctx context.Context, token string, reason string) error
}

// SubmitRecipeCommand proposes a new recipe, or an edit when RecipeID is set
type SubmitRecipeCommand struct {
	RecipeCommand
	RecipeID    *uuid.UUID                  `json:"recipeId"`
	Ingredients []SubmissionIngredientInput `json:"ingredients" validate:"dive"`
}

// SubmissionIngredientInput names an ingredient that may not exist yet
type SubmissionIngredientInput struct {
	IngredientID   *uuid.UUID  `json:"ingredientId"`
	IngredientName string      `json:"ingredientName" validate:"required_without=IngredientID"`
	Quantity       float64     `json:"quantity" validate:"min=0"`
	Unit           recipe.Unit `json:"unit" validate:"required,unit"`
	Optional       bool        `json:"optional"`
}

// SubmissionDTO is the data transfer object for submissions
type SubmissionDTO struct {
	ID              uuid.UUID                 `json:"id"`
	UserID          uuid.UUID                 `json:"userId"`
	RecipeID        *uuid.UUID                `json:"recipeId"`
	Status          string                    `json:"status"`
	Title           string                    `json:"title"`
	Description     string                    `json:"description"`
	PrepTime        int                       `json:"prepTime"`
	CookTime        int                       `json:"cookTime"`
	Difficulty      recipe.Difficulty         `json:"difficulty"`
	Servings        int                       `json:"servings"`
	Tags            []string                  `json:"tags"`
	ToolsRequired   []string                  `json:"toolsRequired"`
	DietTypes       []recipe.DietType         `json:"dietTypes"`
	Ingredients     []SubmissionIngredientDTO `json:"ingredients"`
	Steps           []StepDTO                 `json:"steps"`
	ReviewedAt      *time.Time                `json:"reviewedAt"`
	RejectionReason string                    `json:"rejectionReason,omitempty"`
	CreatedAt       time.Time                 `json:"createdAt"`
}

// SubmissionIngredientDTO is one proposed ingredient line
type SubmissionIngredientDTO struct {
	IngredientID   *uuid.UUID  `json:"ingredientId"`
	IngredientName string      `json:"ingredientName"`
	Quantity       float64     `json:"quantity"`
	Unit           recipe.Unit `json:"unit"`
	Optional       bool        `json:"optional"`
}

// ReviewService defines the use cases for recipe reviews
type ReviewService interface {
	CreateReview(ctx context.Context, userID, recipeID uuid.UUID, cmd CreateReviewCommand) (*ReviewDTO, error)
	ListReviews(ctx context.Context, recipeID uuid.UUID) ([]ReviewDTO, error)
	ReportReview(ctx context.Context, userID, reviewID uuid.UUID) error
	DeleteReview(ctx context.Context, userID, reviewID uuid.UUID) error
	DeleteReviewByToken(ctx context.Context, token string) error
}

// CreateReviewCommand rates a recipe
type CreateReviewCommand struct {
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// ReviewDTO is the data transfer object for reviews
type ReviewDTO struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	RecipeID  uuid.UUID `json:"recipeId"`
	Author    string    `json:"author"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// MediaService defines the image upload use case
type MediaService interface {
	UploadImage(ctx context.Context, cmd UploadImageCommand) (*UploadedImageDTO, error)
}

// UploadImageCommand carries one uploaded file
type UploadImageCommand struct {
	OriginalName string
	Size         int64
	Body         io.Reader
}

// UploadedImageDTO describes a stored image
type UploadedImageDTO struct {
	URL          string `json:"url"`
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
	Size         int64  `json:"size"`
}

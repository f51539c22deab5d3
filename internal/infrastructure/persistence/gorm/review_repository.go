package gorm

import (
	"context"

	"github.com/foodtrack/api/internal/domain/review"
	"github.com/foodtrack/api/internal/ports/outbound"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReviewRepository implements the review repository interface using GORM
type ReviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(db *gorm.DB) outbound.ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create stores a review; one per user and recipe
func (r *ReviewRepository) Create(ctx context.Context, rv *review.Review) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(ReviewToModel(rv)).Error
}

// Delete deletes a review; its reports cascade
func (r *ReviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteRow(ctx, r.db, &ReviewModel{}, id)
}

// FindByID finds a review by ID
func (r *ReviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*review.Review, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByUserAndRecipe finds the review a user wrote for a recipe
func (r *ReviewRepository) FindByUserAndRecipe(ctx context.Context, userID, recipeID uuid.UUID) (*review.Review, error) {
	return r.findOne(ctx, "user_id = ? AND recipe_id = ?", userID, recipeID)
}

func (r *ReviewRepository) findOne(ctx context.Context, query string, args ...interface{}) (*review.Review, error) {
	var model ReviewModel
	found, err := first(ctx, r.db, &model, query, args...)
	if err != nil || !found {
		return nil, err
	}
	return ModelToReview(&model), nil
}

// ListByRecipe returns the recipe's reviews, newest first
func (r *ReviewRepository) ListByRecipe(ctx context.Context, recipeID uuid.UUID) ([]*review.Review, error) {
	var models []ReviewModel
	err := r.db.WithContext(ctx).
		Where("recipe_id = ?", recipeID).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	reviews := make([]*review.Review, 0, len(models))
	for i := range models {
		reviews = append(reviews, ModelToReview(&models[i]))
	}
	return reviews, nil
}

// Summary aggregates the recipe's ratings
func (r *ReviewRepository) Summary(ctx context.Context, recipeID uuid.UUID) (review.Summary, error) {
	var row struct {
		Average *float64
		Count   int
	}
	err := r.db.WithContext(ctx).
		Model(&ReviewModel{}).
		Select("CAST(AVG(rating) AS FLOAT) AS average, COUNT(*) AS count").
		Where("recipe_id = ?", recipeID).
		Scan(&row).Error
	if err != nil {
		return review.Summary{}, err
	}
	if row.Count == 0 {
		return review.Summary{}, nil
	}
	return review.Summary{Average: row.Average, Count: row.Count}, nil
}

// CreateReport stores a report against a review
func (r *ReviewRepository) CreateReport(ctx context.Context, report *review.Report) error {
	return r.db.WithContext(ctx).Create(ReportToModel(report)).Error
}

// FindReport finds the report a user filed against a review
func (r *ReviewRepository) FindReport(ctx context.Context, reviewID, userID uuid.UUID) (*review.Report, error) {
	return r.findReport(ctx, "review_id = ? AND user_id = ?", reviewID, userID)
}

// FindReportByToken finds a report by its deletion token
func (r *ReviewRepository) FindReportByToken(ctx context.Context, token string) (*review.Report, error) {
	return r.findReport(ctx, "deletion_token = ?", token)
}

func (r *ReviewRepository) findReport(ctx context.Context, query string, args ...interface{}) (*review.Report, error) {
	var model ReviewReportModel
	found, err := first(ctx, r.db, &model, query, args...)
	if err != nil || !found {
		return nil, err
	}
	return ModelToReport(&model), nil
}

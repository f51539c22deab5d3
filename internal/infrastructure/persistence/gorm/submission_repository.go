package gorm

import (
	"context"

	"github.com/foodtrack/api/internal/domain/submission"
	"github.com/foodtrack/api/internal/ports/outbound"
	"gorm.io/gorm"
)

// SubmissionRepository implements the submission repository interface using GORM
type SubmissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository creates a new submission repository
func NewSubmissionRepository(db *gorm.DB) outbound.SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Create stores a new submission
func (r *SubmissionRepository) Create(ctx context.Context, s *submission.Submission) error {
	return r.db.WithContext(ctx).Create(SubmissionToModel(s)).Error
}

// Update saves the moderation outcome of a submission
func (r *SubmissionRepository) Update(ctx context.Context, s *submission.Submission) error {
	model := SubmissionToModel(s)
	return updateRow(r.db.WithContext(ctx), model, model.ID)
}

// FindByToken finds a submission by its approval token
func (r *SubmissionRepository) FindByToken(ctx context.Context, token string) (*submission.Submission, error) {
	var model SubmissionModel
	found, err := first(ctx, r.db, &model, "approval_token = ?", token)
	if err != nil || !found {
		return nil, err
	}
	return ModelToSubmission(&model), nil
}

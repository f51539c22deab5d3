// Package review provides the application layer for recipe reviews
package review

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/foodtrack/api/internal/domain/recipe"
	"github.com/foodtrack/api/internal/domain/review"
	"github.com/foodtrack/api/internal/domain/user"
	"github.com/foodtrack/api/internal/ports/inbound"
	"github.com/foodtrack/api/internal/ports/outbound"
	"github.com/foodtrack/api/pkg/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RatingInvalidator drops cached recipe views after their ratings change
type RatingInvalidator interface {
	Invalidate(ctx context.Context, recipeID uuid.UUID)
}

// Notification addresses used in moderation emails
type Notification struct {
	AdminEmail string
	// APIURL prefixes the review deletion link sent on reports
	APIURL string
}

// ReviewService implements the review use cases
type ReviewService struct {
	reviews     outbound.ReviewRepository
	recipes     outbound.RecipeRepository
	users       outbound.UserRepository
	email       outbound.EmailService
	invalidator RatingInvalidator
	notify      Notification
	logger      *zap.Logger
}

// NewReviewService creates a new review service
func NewReviewService(
	reviews outbound.ReviewRepository,
	recipes outbound.RecipeRepository,
	users outbound.UserRepository,
	email outbound.EmailService,
	invalidator RatingInvalidator,
	notify Notification,
	logger *zap.Logger,
) *ReviewService {
	notify.APIURL = strings.TrimRight(notify.APIURL, "/")
	return &ReviewService{
		reviews:     reviews,
		recipes:     recipes,
		users:       users,
		email:       email,
		invalidator: invalidator,
		notify:      notify,
		logger:      logger.Named("review-service"),
	}
}

var _ inbound.ReviewService = (*ReviewService)(nil)

// CreateReview rates a recipe once per user
func (s *ReviewService) CreateReview(ctx context.Context, userID, recipeID uuid.UUID, cmd inbound.CreateReviewCommand) (*inbound.ReviewDTO, error) {
	target, err := s.recipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	existing, err := s.reviews.FindByUserAndRecipe(ctx, userID, recipeID)
	if err != nil {
		return nil, errors.NewDatabaseError("find review", err)
	}
	if existing != nil {
		return nil, errors.NewAlreadyReviewedError(review.ErrAlreadyReviewed.Error())
	}

	entity, err := review.New(userID, recipeID, cmd.Rating, cmd.Comment)
	if err != nil {
		return nil, translate(err)
	}
	if err := s.reviews.Create(ctx, entity); err != nil {
		return nil, errors.NewDatabaseError("create review", err)
	}
	s.invalidator.Invalidate(ctx, recipeID)

	author := s.author(ctx, userID)
	s.logger.Info("Review created",
		zap.String("review_id", entity.ID.String()),
		zap.String("recipe_id", recipeID.String()),
		zap.Int("rating", entity.Rating),
	)

	if s.notify.AdminEmail != "" {
		msg := outbound.ReviewEmail{
			To:          s.notify.AdminEmail,
			RecipeID:    recipeID,
			RecipeTitle: target.Title(),
			Author:      author,
			Rating:      entity.Rating,
			Comment:     entity.Comment,
		}
		if err := s.email.SendReviewNotice(ctx, msg); err != nil {
			s.logger.Error("Failed to send review notice", zap.String("review_id", entity.ID.String()), zap.Error(err))
		}
	}

	dto := toDTO(entity, author)
	return &dto, nil
}

// ListReviews returns a recipe's reviews, newest first
func (s *ReviewService) ListReviews(ctx context.Context, recipeID uuid.UUID) ([]inbound.ReviewDTO, error) {
	if _, err := s.recipe(ctx, recipeID); err != nil {
		return nil, err
	}

	reviews, err := s.reviews.ListByRecipe(ctx, recipeID)
	if err != nil {
		return nil, errors.NewDatabaseError("list reviews", err)
	}

	authors := make(map[uuid.UUID]string)
	out := make([]inbound.ReviewDTO, 0, len(reviews))
	for _, r := range reviews {
		name, ok := authors[r.UserID]
		if !ok {
			name = s.author(ctx, r.UserID)
			authors[r.UserID] = name
		}
		out = append(out, toDTO(r, name))
	}
	return out, nil
}

// ReportReview flags a review and mails the administrator a deletion link
func (s *ReviewService) ReportReview(ctx context.Context, userID, reviewID uuid.UUID) error {
	target, err := s.review(ctx, reviewID)
	if err != nil {
		return err
	}

	previous, err := s.reviews.FindReport(ctx, reviewID, userID)
	if err != nil {
		return errors.NewDatabaseError("find report", err)
	}
	if previous != nil {
		return errors.NewConflictError(review.ErrAlreadyReported.Error())
	}

	report, err := review.NewReport(reviewID, userID)
	if err != nil {
		return errors.Wrap(err, "create report")
	}
	if err := s.reviews.CreateReport(ctx, report); err != nil {
		return errors.NewDatabaseError("create report", err)
	}

	s.logger.Info("Review reported",
		zap.String("review_id", reviewID.String()),
		zap.String("reporter_id", userID.String()),
	)

	if s.notify.AdminEmail == "" {
		s.logger.Warn("No admin email configured, report will not be announced")
		return nil
	}
	title := ""
	if r, err := s.recipes.FindByID(ctx, target.RecipeID); err == nil && r != nil {
		title = r.Title()
	}
	msg := outbound.ReportEmail{
		To:          s.notify.AdminEmail,
		RecipeID:    target.RecipeID,
		RecipeTitle: title,
		ReviewID:    target.ID,
		Reporter:    s.author(ctx, userID),
		Rating:      target.Rating,
		Comment:     target.Comment,
		DeletionURL: s.notify.APIURL + "/api/v1/reviews/delete/" + report.DeletionToken,
	}
	if err := s.email.SendReviewReport(ctx, msg); err != nil {
		s.logger.Error("Failed to send report email", zap.String("review_id", reviewID.String()), zap.Error(err))
	}
	return nil
}

// DeleteReview removes the caller's own review
func (s *ReviewService) DeleteReview(ctx context.Context, userID, reviewID uuid.UUID) error {
	target, err := s.review(ctx, reviewID)
	if err != nil {
		return err
	}
	if !target.WrittenBy(userID) {
		return errors.NewNotFoundError("review")
	}
	return s.remove(ctx, target)
}

// DeleteReviewByToken removes a reported review from an email link
func (s *ReviewService) DeleteReviewByToken(ctx context.Context, token string) error {
	report, err := s.reviews.FindReportByToken(ctx, token)
	if err != nil {
		return errors.NewDatabaseError("find report", err)
	}
	if report == nil {
		return errors.NewNotFoundError("report")
	}
	target, err := s.review(ctx, report.ReviewID)
	if err != nil {
		return err
	}
	return s.remove(ctx, target)
}

func (s *ReviewService) remove(ctx context.Context, target *review.Review) error {
	if err := s.reviews.Delete(ctx, target.ID); err != nil {
		return errors.NewDatabaseError("delete review", err)
	}
	s.invalidator.Invalidate(ctx, target.RecipeID)
	s.logger.Info("Review deleted",
		zap.String("review_id", target.ID.String()),
		zap.String("recipe_id", target.RecipeID.String()),
	)
	return nil
}

func (s *ReviewService) recipe(ctx context.Context, id uuid.UUID) (*recipe.Recipe, error) {
	r, err := s.recipes.FindByID(ctx, id)
	if err != nil {
		return nil, errors.NewDatabaseError("find recipe", err)
	}
	if r == nil {
		return nil, errors.NewRecipeNotFoundError(id.String())
	}
	return r, nil
}

func (s *ReviewService) review(ctx context.Context, id uuid.UUID) (*review.Review, error) {
	r, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		return nil, errors.NewDatabaseError("find review", err)
	}
	if r == nil {
		return nil, errors.NewNotFoundError("review")
	}
	return r, nil
}

// author is the display name of a user, falling back to the email
func (s *ReviewService) author(ctx context.Context, id uuid.UUID) string {
	u, err := s.users.FindByID(ctx, id)
	if err != nil || u == nil {
		return "Anonymous"
	}
	return DisplayName(u)
}

// DisplayName joins first and last name, or returns the email when both are empty
func DisplayName(u *user.User) string {
	name := strings.TrimSpace(u.FirstName() + " " + u.LastName())
	if name == "" {
		return u.Email()
	}
	return name
}

func toDTO(r *review.Review, author string) inbound.ReviewDTO {
	return inbound.ReviewDTO{
		ID:        r.ID,
		UserID:    r.UserID,
		RecipeID:  r.RecipeID,
		Author:    author,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
}

func translate(err error) error {
	switch {
	case stderrors.Is(err, review.ErrInvalidRating),
		stderrors.Is(err, review.ErrCommentTooLong):
		return errors.NewValidationError(err.Error())
	}
	return errors.Wrap(err, "review operation failed")
}

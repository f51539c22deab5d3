// Package submission provides the application layer for recipe submissions
package submission

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	recipeapp "github.com/foodtrack/api/internal/application/recipe"
	"github.com/foodtrack/api/internal/domain/ingredient"
	"github.com/foodtrack/api/internal/domain/recipe"
	"github.com/foodtrack/api/internal/domain/submission"
	"github.com/foodtrack/api/internal/ports/inbound"
	"github.com/foodtrack/api/internal/ports/outbound"
	"github.com/foodtrack/api/pkg/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RecipeWriter stores recipes built from approved submissions
type RecipeWriter interface {
	Create(ctx context.Context, details recipe.Details) (*inbound.RecipeDTO, error)
	Update(ctx context.Context, id uuid.UUID, patch recipe.Patch) (*inbound.RecipeDTO, error)
}

// IngredientResolver finds an ingredient by name, creating it when missing
type IngredientResolver interface {
	FindOrCreate(ctx context.Context, name string) (*ingredient.Ingredient, error)
}

// Notification addresses used in moderation emails
type Notification struct {
	AdminEmail  string
	FrontendURL string
}

// SubmissionService implements the submission use cases
type SubmissionService struct {
	submissions outbound.SubmissionRepository
	recipes     outbound.RecipeRepository
	ingredients outbound.IngredientRepository
	users       outbound.UserRepository
	writer      RecipeWriter
	resolver    IngredientResolver
	email       outbound.EmailService
	notify      Notification
	logger      *zap.Logger
}

// NewSubmissionService creates a new submission service
func NewSubmissionService(
	submissions outbound.SubmissionRepository,
	recipes outbound.RecipeRepository,
	ingredients outbound.IngredientRepository,
	users outbound.UserRepository,
	writer RecipeWriter,
	resolver IngredientResolver,
	email outbound.EmailService,
	notify Notification,
	logger *zap.Logger,
) *SubmissionService {
	notify.FrontendURL = strings.TrimRight(notify.FrontendURL, "/")
	return &SubmissionService{
		submissions: submissions,
		recipes:     recipes,
		ingredients: ingredients,
		users:       users,
		writer:      writer,
		resolver:    resolver,
		email:       email,
		notify:      notify,
		logger:      logger.Named("submission-service"),
	}
}

var _ inbound.SubmissionService = (*SubmissionService)(nil)

// Submit stores a proposal and asks the administrator to review it
func (s *SubmissionService) Submit(ctx context.Context, userID uuid.UUID, cmd inbound.SubmitRecipeCommand) (*inbound.SubmissionDTO, error) {
	if cmd.RecipeID != nil {
		existing, err := s.recipes.FindByID(ctx, *cmd.RecipeID)
		if err != nil {
			return nil, errors.NewDatabaseError("find recipe", err)
		}
		if existing == nil {
			return nil, errors.NewRecipeNotFoundError(cmd.RecipeID.String())
		}
	}

	lines := make([]submission.Line, 0, len(cmd.Ingredients))
	for _, in := range cmd.Ingredients {
		line := submission.Line{
			IngredientID:   in.IngredientID,
			IngredientName: in.IngredientName,
			Quantity:       in.Quantity,
			Unit:           in.Unit,
			Optional:       in.Optional,
		}
		if !line.Resolved() {
			known, err := s.ingredients.FindByName(ctx, strings.TrimSpace(in.IngredientName))
			if err != nil {
				return nil, errors.NewDatabaseError("find ingredient by name", err)
			}
			if known != nil {
				id := known.ID
				line.IngredientID = &id
			}
		}
		lines = append(lines, line)
	}

	sub, err := submission.New(userID, cmd.RecipeID, recipeapp.DetailsFromCommand(cmd.RecipeCommand), lines)
	if err != nil {
		return nil, translate(err)
	}
	if err := s.submissions.Create(ctx, sub); err != nil {
		return nil, errors.NewDatabaseError("create submission", err)
	}

	s.logger.Info("Recipe submitted",
		zap.String("submission_id", sub.ID.String()),
		zap.String("user_id", userID.String()),
		zap.Bool("edit", sub.IsEdit()),
		zap.Strings("new_ingredients", sub.UnresolvedNames()),
	)
	s.notifyAdmin(ctx, sub)

	dto := ToDTO(sub)
	return &dto, nil
}

func (s *SubmissionService) notifyAdmin(ctx context.Context, sub *submission.Submission) {
	if s.notify.AdminEmail == "" {
		s.logger.Warn("No admin email configured, submission will not be announced",
			zap.String("submission_id", sub.ID.String()))
		return
	}
	submitter := "Unknown"
	if u, err := s.users.FindByID(ctx, sub.UserID); err == nil && u != nil {
		submitter = u.Email()
	}
	msg := outbound.SubmissionEmail{
		To:           s.notify.AdminEmail,
		SubmissionID: sub.ID,
		RecipeTitle:  sub.Details.Title,
		SubmittedBy:  submitter,
		ApprovalURL:  s.notify.FrontendURL + "/recipe-submissions/approve/" + sub.ApprovalToken,
		IsEdit:       sub.IsEdit(),
	}
	if err := s.email.SendSubmissionApproval(ctx, msg); err != nil {
		s.logger.Error("Failed to send approval email", zap.String("submission_id", sub.ID.String()), zap.Error(err))
	}
}

// GetByToken returns the submission an approval link points to
func (s *SubmissionService) GetByToken(ctx context.Context, token string) (*inbound.SubmissionDTO, error) {
	sub, err := s.byToken(ctx, token)
	if err != nil {
		return nil, err
	}
	dto := ToDTO(sub)
	return &dto, nil
}

// Approve creates the missing ingredients, then creates or updates the recipe
func (s *SubmissionService) Approve(ctx context.Context, token string) (*inbound.RecipeDTO, error) {
	sub, err := s.byToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if sub.Status != submission.StatusPending {
		return nil, errors.NewBadRequestError(submission.ErrAlreadyReviewed.Error())
	}

	created := make(map[string]uuid.UUID)
	for _, name := range sub.UnresolvedNames() {
		ing, err := s.resolver.FindOrCreate(ctx, name)
		if err != nil {
			return nil, err
		}
		created[name] = ing.ID
	}
	details, err := sub.RecipeDetails(func(name string) (uuid.UUID, bool) {
		id, ok := created[name]
		return id, ok
	})
	if err != nil {
		return nil, errors.NewBadRequestError(err.Error())
	}

	var out *inbound.RecipeDTO
	if sub.IsEdit() {
		out, err = s.writer.Update(ctx, *sub.RecipeID, patchFrom(details))
	} else {
		out, err = s.writer.Create(ctx, details)
	}
	if err != nil {
		return nil, err
	}

	if err := sub.Approve(time.Now().UTC()); err != nil {
		return nil, errors.NewBadRequestError(err.Error())
	}
	if err := s.submissions.Update(ctx, sub); err != nil {
		return nil, errors.NewDatabaseError("update submission", err)
	}

	s.logger.Info("Submission approved",
		zap.String("submission_id", sub.ID.String()),
		zap.String("recipe_id", out.ID.String()),
		zap.Int("ingredients_created", len(created)),
	)
	return out, nil
}

// Reject closes a pending submission
func (s *SubmissionService) Reject(ctx context.Context, token, reason string) error {
	sub, err := s.byToken(ctx, token)
	if err != nil {
		return err
	}
	if err := sub.Reject(reason, time.Now().UTC()); err != nil {
		return errors.NewBadRequestError(err.Error())
	}
	if err := s.submissions.Update(ctx, sub); err != nil {
		return errors.NewDatabaseError("update submission", err)
	}
	s.logger.Info("Submission rejected", zap.String("submission_id", sub.ID.String()))
	return nil
}

func (s *SubmissionService) byToken(ctx context.Context, token string) (*submission.Submission, error) {
	sub, err := s.submissions.FindByToken(ctx, token)
	if err != nil {
		return nil, errors.NewDatabaseError("find submission", err)
	}
	if sub == nil {
		return nil, errors.NewNotFoundError("recipe submission")
	}
	return sub, nil
}

// patchFrom turns approved attributes into a full replacement patch
func patchFrom(d recipe.Details) recipe.Patch {
	return recipe.Patch{
		Title:       &d.Title,
		Description: &d.Description,
		ImageURL:    &d.ImageURL,
		PrepTime:    &d.PrepTime,
		CookTime:    &d.CookTime,
		Difficulty:  &d.Difficulty,
		Servings:    &d.Servings,
		Tags:        nonNil(d.Tags),
		Tools:       nonNil(d.Tools),
		DietTypes:   append([]recipe.DietType{}, d.DietTypes...),
		Nutrition:   &d.Nutrition,
		Ingredients: append([]recipe.IngredientLine{}, d.Ingredients...),
		Steps:       append([]recipe.Step{}, d.Steps...),
	}
}

func nonNil(in []string) []string {
	return append([]string{}, in...)
}

// ToDTO converts a submission to its transfer object
func ToDTO(sub *submission.Submission) inbound.SubmissionDTO {
	d := sub.Details
	dto := inbound.SubmissionDTO{
		ID:              sub.ID,
		UserID:          sub.UserID,
		RecipeID:        sub.RecipeID,
		Status:          string(sub.Status),
		Title:           d.Title,
		Description:     d.Description,
		PrepTime:        d.PrepTime,
		CookTime:        d.CookTime,
		Difficulty:      d.Difficulty,
		Servings:        d.Servings,
		Tags:            nonNil(d.Tags),
		ToolsRequired:   nonNil(d.Tools),
		DietTypes:       append([]recipe.DietType{}, d.DietTypes...),
		Ingredients:     make([]inbound.SubmissionIngredientDTO, 0, len(sub.Lines)),
		Steps:           make([]inbound.StepDTO, 0, len(d.Steps)),
		ReviewedAt:      sub.ReviewedAt,
		RejectionReason: sub.RejectionReason,
		CreatedAt:       sub.CreatedAt,
	}
	for _, l := range sub.Lines {
		dto.Ingredients = append(dto.Ingredients, inbound.SubmissionIngredientDTO{
			IngredientID:   l.IngredientID,
			IngredientName: l.IngredientName,
			Quantity:       l.Quantity,
			Unit:           l.Unit,
			Optional:       l.Optional,
		})
	}
	for _, st := range d.Steps {
		dto.Steps = append(dto.Steps, inbound.StepDTO{StepNumber: st.Number, Instruction: st.Instruction})
	}
	return dto
}

func translate(err error) error {
	switch {
	case stderrors.Is(err, submission.ErrIngredientNameless),
		stderrors.Is(err, recipe.ErrTitleRequired),
		stderrors.Is(err, recipe.ErrTitleTooLong),
		stderrors.Is(err, recipe.ErrInvalidPrepTime),
		stderrors.Is(err, recipe.ErrInvalidCookTime),
		stderrors.Is(err, recipe.ErrInvalidServings),
		stderrors.Is(err, recipe.ErrInvalidDifficulty),
		stderrors.Is(err, recipe.ErrInvalidDietType),
		stderrors.Is(err, recipe.ErrInvalidUnit),
		stderrors.Is(err, recipe.ErrNegativeQuantity),
		stderrors.Is(err, recipe.ErrInvalidStepNumber),
		stderrors.Is(err, recipe.ErrEmptyInstruction):
		return errors.NewValidationError(err.Error())
	}
	return errors.Wrap(err, "submission operation failed")
}

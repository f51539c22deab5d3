package review

import (
	"context"
	"strings"
	"testing"

	"github.com/foodtrack/api/internal/domain/review"
	"github.com/foodtrack/api/internal/domain/user"
	"github.com/foodtrack/api/internal/ports/inbound"
	"github.com/foodtrack/api/internal/ports/outbound"
	"github.com/foodtrack/api/pkg/errors"
	"github.com/foodtrack/api/test/testutils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"
)

type invalidations struct {
	ids []uuid.UUID
}

func (i *invalidations) Invalidate(_ context.Context, id uuid.UUID) {
	i.ids = append(i.ids, id)
}

type ReviewServiceSuite struct {
	suite.Suite
	ctx         context.Context
	factory     *testutils.Factory
	reviews     *testutils.MockReviewRepository
	recipes     *testutils.MockRecipeRepository
	users       *testutils.MockUserRepository
	email       *testutils.MockEmailService
	invalidated *invalidations
	service     *ReviewService
}

func TestReviewService(t *testing.T) {
	suite.Run(t, new(ReviewServiceSuite))
}

func (s *ReviewServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.factory = testutils.NewFactory(testutils.DefaultSeed)
	s.reviews = new(testutils.MockReviewRepository)
	s.recipes = new(testutils.MockRecipeRepository)
	s.users = new(testutils.MockUserRepository)
	s.email = new(testutils.MockEmailService)
	s.invalidated = &invalidations{}
	s.service = NewReviewService(s.reviews, s.recipes, s.users, s.email, s.invalidated,
		Notification{AdminEmail: "admin@foodtrack.local", APIURL: "https://api.foodtrack.local/"},
		zaptest.NewLogger(s.T()))
}

func (s *ReviewServiceSuite) TestCreateReview_Success() {
	// Arrange
	r := s.factory.Recipe().Build()
	author := s.factory.User("password123")
	s.recipes.On("FindByID", mock.Anything, r.ID()).Return(r, nil)
	s.reviews.On("FindByUserAndRecipe", mock.Anything, author.ID(), r.ID()).Return(nil, nil)
	s.reviews.On("Create", mock.Anything, mock.AnythingOfType("*review.Review")).Return(nil)
	s.users.On("FindByID", mock.Anything, author.ID()).Return(author, nil)
	s.email.On("SendReviewNotice", mock.Anything, mock.MatchedBy(func(msg outbound.ReviewEmail) bool {
		return msg.To == "admin@foodtrack.local" && msg.Rating == 5 && msg.RecipeTitle == r.Title()
	})).Return(nil)

	// Act
	dto, err := s.service.CreateReview(s.ctx, author.ID(), r.ID(), inbound.CreateReviewCommand{Rating: 5, Comment: "Lovely"})

	// Assert
	s.Require().NoError(err)
	s.Equal(DisplayName(author), dto.Author)
	s.Equal([]uuid.UUID{r.ID()}, s.invalidated.ids)
	s.email.AssertExpectations(s.T())
}

func (s *ReviewServiceSuite) TestCreateReview_OncePerUser() {
	r := s.factory.Recipe().Build()
	userID := uuid.New()
	previous, err := review.New(userID, r.ID(), 3, "")
	s.Require().NoError(err)
	s.recipes.On("FindByID", mock.Anything, r.ID()).Return(r, nil)
	s.reviews.On("FindByUserAndRecipe", mock.Anything, userID, r.ID()).Return(previous, nil)

	_, err = s.service.CreateReview(s.ctx, userID, r.ID(), inbound.CreateReviewCommand{Rating: 4})

	testutils.AssertAppError(s.T(), err, errors.CodeAlreadyReviewed)
	s.Empty(s.invalidated.ids)
}

func (s *ReviewServiceSuite) TestCreateReview_InvalidRating() {
	r := s.factory.Recipe().Build()
	s.recipes.On("FindByID", mock.Anything, r.ID()).Return(r, nil)
	s.reviews.On("FindByUserAndRecipe", mock.Anything, mock.Anything, r.ID()).Return(nil, nil)

	_, err := s.service.CreateReview(s.ctx, uuid.New(), r.ID(), inbound.CreateReviewCommand{Rating: 6})

	testutils.AssertAppError(s.T(), err, errors.CodeValidationFailed)
}

func (s *ReviewServiceSuite) TestCreateReview_UnknownRecipe() {
	id := uuid.New()
	s.recipes.On("FindByID", mock.Anything, id).Return(nil, nil)

	_, err := s.service.CreateReview(s.ctx, uuid.New(), id, inbound.CreateReviewCommand{Rating: 4})

	testutils.AssertAppError(s.T(), err, errors.CodeRecipeNotFound)
}

func (s *ReviewServiceSuite) TestReportReview_SendsDeletionLink() {
	// Arrange
	r := s.factory.Recipe().Build()
	target, err := review.New(uuid.New(), r.ID(), 1, "awful")
	s.Require().NoError(err)
	reporter := uuid.New()
	var token string
	s.reviews.On("FindByID", mock.Anything, target.ID).Return(target, nil)
	s.reviews.On("FindReport", mock.Anything, target.ID, reporter).Return(nil, nil)
	s.reviews.On("CreateReport", mock.Anything, mock.AnythingOfType("*review.Report")).
		Run(func(args mock.Arguments) { token = args.Get(1).(*review.Report).DeletionToken }).
		Return(nil)
	s.recipes.On("FindByID", mock.Anything, r.ID()).Return(r, nil)
	s.users.On("FindByID", mock.Anything, reporter).Return(nil, nil)
	var sent outbound.ReportEmail
	s.email.On("SendReviewReport", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).(outbound.ReportEmail) }).
		Return(nil)

	// Act
	err = s.service.ReportReview(s.ctx, reporter, target.ID)

	// Assert
	s.Require().NoError(err)
	s.NotEmpty(token)
	s.Equal("https://api.foodtrack.local/api/v1/reviews/delete/"+token, sent.DeletionURL)
	s.Equal("Anonymous", sent.Reporter)
	s.Equal(r.Title(), sent.RecipeTitle)
}

func (s *ReviewServiceSuite) TestReportReview_Twice() {
	target, err := review.New(uuid.New(), uuid.New(), 2, "")
	s.Require().NoError(err)
	reporter := uuid.New()
	report, err := review.NewReport(target.ID, reporter)
	s.Require().NoError(err)
	s.reviews.On("FindByID", mock.Anything, target.ID).Return(target, nil)
	s.reviews.On("FindReport", mock.Anything, target.ID, reporter).Return(report, nil)

	err = s.service.ReportReview(s.ctx, reporter, target.ID)

	testutils.AssertAppError(s.T(), err, errors.CodeConflict)
}

func (s *ReviewServiceSuite) TestDeleteReview_OnlyAuthor() {
	// Arrange
	authorID := uuid.New()
	target, err := review.New(authorID, uuid.New(), 4, "")
	s.Require().NoError(err)
	s.reviews.On("FindByID", mock.Anything, target.ID).Return(target, nil)
	s.reviews.On("Delete", mock.Anything, target.ID).Return(nil)

	// Act
	strangerErr := s.service.DeleteReview(s.ctx, uuid.New(), target.ID)
	authorErr := s.service.DeleteReview(s.ctx, authorID, target.ID)

	// Assert
	testutils.AssertAppError(s.T(), strangerErr, errors.CodeNotFound)
	s.NoError(authorErr)
	s.reviews.AssertNumberOfCalls(s.T(), "Delete", 1)
	s.Equal([]uuid.UUID{target.RecipeID}, s.invalidated.ids)
}

func (s *ReviewServiceSuite) TestDeleteReviewByToken() {
	target, err := review.New(uuid.New(), uuid.New(), 1, "spam")
	s.Require().NoError(err)
	report, err := review.NewReport(target.ID, uuid.New())
	s.Require().NoError(err)
	s.reviews.On("FindReportByToken", mock.Anything, report.DeletionToken).Return(report, nil)
	s.reviews.On("FindReportByToken", mock.Anything, "unknown").Return(nil, nil)
	s.reviews.On("FindByID", mock.Anything, target.ID).Return(target, nil)
	s.reviews.On("Delete", mock.Anything, target.ID).Return(nil)

	s.NoError(s.service.DeleteReviewByToken(s.ctx, report.DeletionToken))
	testutils.AssertAppError(s.T(), s.service.DeleteReviewByToken(s.ctx, "unknown"), errors.CodeNotFound)
}

func TestDisplayName(t *testing.T) {
	named, err := user.NewUser("chef@example.com", "password123", "Julia", "Child")
	assert.NoError(t, err)
	anonymous, err := user.NewUser("cook@example.com", "password123", "", "")
	assert.NoError(t, err)

	assert.Equal(t, "Julia Child", DisplayName(named))
	assert.Equal(t, "cook@example.com", DisplayName(anonymous))
	assert.False(t, strings.HasSuffix(DisplayName(named), " "))
}

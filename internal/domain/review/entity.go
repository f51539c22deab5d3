// Package review defines recipe reviews and moderation reports.
package review

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/foodtrack/api/internal/domain/submission"
	"github.com/google/uuid"
)

const (
	MinRating        = 1
	MaxRating        = 5
	maxCommentLength = 2000
)

var (
	ErrInvalidRating   = errors.New("rating must be between 1 and 5")
	ErrCommentTooLong  = errors.New("comment must be at most 2000 characters")
	ErrReviewNotFound  = errors.New("review not found")
	ErrReportNotFound  = errors.New("report not found")
	ErrAlreadyReviewed = errors.New("you have already reviewed this recipe")
	ErrAlreadyReported = errors.New("you have already reported this review")
)

// Review is one user's rating of one recipe
type Review struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	RecipeID  uuid.UUID
	Rating    int
	Comment   string
	CreatedAt time.Time
}

// New validates and creates a review
func New(userID, recipeID uuid.UUID, rating int, comment string) (*Review, error) {
	if rating < MinRating || rating > MaxRating {
		return nil, ErrInvalidRating
	}
	comment = strings.TrimSpace(comment)
	if utf8.RuneCountInString(comment) > maxCommentLength {
		return nil, ErrCommentTooLong
	}
	return &Review{
		ID:        uuid.New(),
		UserID:    userID,
		RecipeID:  recipeID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// WrittenBy reports whether userID authored the review
func (r *Review) WrittenBy(userID uuid.UUID) bool {
	return r.UserID == userID
}

// Report flags a review for moderation. The deletion token lets an
// administrator remove the review from an email link.
type Report struct {
	ID            uuid.UUID
	ReviewID      uuid.UUID
	UserID        uuid.UUID
	DeletionToken string
	CreatedAt     time.Time
}

// NewReport creates a report with a fresh deletion token
func NewReport(reviewID, userID uuid.UUID) (*Report, error) {
	token, err := submission.NewToken()
	if err != nil {
		return nil, err
	}
	return &Report{
		ID:            uuid.New(),
		ReviewID:      reviewID,
		UserID:        userID,
		DeletionToken: token,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// Summary is the rating aggregate of one recipe
type Summary struct {
	Average *float64
	Count   int
}

// Summarize averages ratings; Average is nil when there are none
func Summarize(ratings []int) Summary {
	if len(ratings) == 0 {
		return Summary{}
	}
	total := 0
	for _, r := range ratings {
		total += r
	}
	avg := float64(total) / float64(len(ratings))
	return Summary{Average: &avg, Count: len(ratings)}
}

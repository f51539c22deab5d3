package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want int
	}{
		{"validation", NewValidationError("count must be positive"), http.StatusBadRequest},
		{"unauthorized", NewUnauthorizedError(""), http.StatusUnauthorized},
		{"credentials", NewInvalidCredentialsError(), http.StatusUnauthorized},
		{"forbidden", NewForbiddenError("not your meal plan"), http.StatusForbidden},
		{"not found", NewNotFoundError("meal plan"), http.StatusNotFound},
		{"recipe not found", NewRecipeNotFoundError("r-1"), http.StatusNotFound},
		{"slug conflict", NewSlugAlreadyExistsError("ratatouille"), http.StatusConflict},
		{"already reviewed", NewAlreadyReviewedError("You have already reviewed this recipe"), http.StatusConflict},
		{"too large", NewPayloadTooLargeError(5 << 20), http.StatusRequestEntityTooLarge},
		{"media type", NewUnsupportedMediaTypeError("text/plain"), http.StatusUnsupportedMediaType},
		{"database", NewDatabaseError("load recipes", stderrors.New("boom")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.StatusCode())
		})
	}
}

func TestNewNotFoundErrorCapitalizesResource(t *testing.T) {
	err := NewNotFoundError("shopping list")

	assert.Equal(t, "Shopping list not found", err.Message)
	assert.Equal(t, CodeNotFound, err.Code)
}

func TestWrapKeepsAppErrorsThroughWrapping(t *testing.T) {
	original := NewForbiddenError("You do not have access to this meal plan")
	wrapped := fmt.Errorf("generate: %w", original)

	got := Wrap(wrapped, "unexpected")

	require.NotNil(t, got)
	assert.Same(t, original, got)
	assert.True(t, Is(wrapped, CodeForbidden))
	assert.Equal(t, CodeForbidden, GetCode(wrapped))
}

func TestWrapPlainError(t *testing.T) {
	cause := stderrors.New("disk full")

	got := Wrap(cause, "could not store image")

	require.NotNil(t, got)
	assert.Equal(t, CodeInternal, got.Code)
	assert.ErrorIs(t, got, cause)
	assert.Nil(t, Wrap(nil, "ignored"))
}

func TestNewValidationErrors(t *testing.T) {
	err := NewValidationErrors([]ValidationError{
		{Field: "numberOfMeals", Tag: "max", Message: "numberOfMeals must be at most 21"},
		{Field: "maxPrepTime", Tag: "min", Message: "maxPrepTime must be at least 5"},
	})

	assert.Equal(t, CodeValidationFailed, err.Code)
	assert.Equal(t, "numberOfMeals must be at most 21; maxPrepTime must be at least 5", err.Details)
	assert.Contains(t, err.Metadata, "validation_errors")
}

func TestToErrorResponse(t *testing.T) {
	resp := ToErrorResponse(NewConflictError("duplicate"), "req-42")

	assert.Equal(t, CodeConflict, resp.Error.Code)
	assert.Equal(t, "duplicate", resp.Error.Message)
	assert.Equal(t, "req-42", resp.Error.RequestID)
	assert.NotEmpty(t, resp.Error.Timestamp)
}

package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/foodtrack/api/internal/application/media"
	"github.com/foodtrack/api/internal/infrastructure/security"
	"github.com/foodtrack/api/internal/ports/inbound"
	"github.com/foodtrack/api/pkg/errors"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// multipartOverhead leaves room for multipart headers around the file
const multipartOverhead = 64 << 10

// CommunityHandlers serves reviews, recipe submissions and image uploads
type CommunityHandlers struct {
	base
	reviews     inbound.ReviewService
	submissions inbound.SubmissionService
	media       inbound.MediaService
}

// NewCommunityHandlers creates the review, submission and upload handlers
func NewCommunityHandlers(
	reviews inbound.ReviewService,
	submissions inbound.SubmissionService,
	media inbound.MediaService,
	validator *security.Validator,
	logger *zap.Logger,
) *CommunityHandlers {
	return &CommunityHandlers{
		base:        base{validator: validator, logger: logger},
		reviews:     reviews,
		submissions: submissions,
		media:       media,
	}
}

// ListReviews handles GET /api/v1/recipes/{id}/reviews
func (h *CommunityHandlers) ListReviews(w http.ResponseWriter, r *http.Request) {
	recipeID, err := pathUUID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	reviews, err := h.reviews.ListReviews(r.Context(), recipeID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, reviews)
}

// CreateReview handles POST /api/v1/recipes/{id}/reviews
func (h *CommunityHandlers) CreateReview(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	recipeID, err := pathUUID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var cmd inbound.CreateReviewCommand
	if err := h.decode(w, r, &cmd); err != nil {
		h.writeError(w, r, err)
		return
	}

	review, err := h.reviews.CreateReview(r.Context(), userID, recipeID, cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, review)
}

// ReportReview handles POST /api/v1/recipes/{id}/reviews/{reviewId}/report
func (h *CommunityHandlers) ReportReview(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	reviewID, err := pathUUID(r, "reviewId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.reviews.ReportReview(r.Context(), userID, reviewID); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Review reported"})
}

// DeleteReview handles DELETE /api/v1/recipes/{id}/reviews/{reviewId}
func (h *CommunityHandlers) DeleteReview(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	reviewID, err := pathUUID(r, "reviewId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.reviews.DeleteReview(r.Context(), userID, reviewID); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Review deleted"})
}

// DeleteReviewByToken handles DELETE /api/v1/reviews/delete/{token}, the
// moderation link sent when a review is reported.
func (h *CommunityHandlers) DeleteReviewByToken(w http.ResponseWriter, r *http.Request) {
	if err := h.reviews.DeleteReviewByToken(r.Context(), chi.URLParam(r, "token")); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Review deleted"})
}

// Submit handles POST /api/v1/recipe-submissions
func (h *CommunityHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var cmd inbound.SubmitRecipeCommand
	if err := h.decode(w, r, &cmd); err != nil {
		h.writeError(w, r, err)
		return
	}

	submission, err := h.submissions.Submit(r.Context(), userID, cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, submission)
}

// GetSubmission handles GET /api/v1/recipe-submissions/{token}
func (h *CommunityHandlers) GetSubmission(w http.ResponseWriter, r *http.Request) {
	submission, err := h.submissions.GetByToken(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, submission)
}

// ApproveSubmission handles POST /api/v1/recipe-submissions/approve/{token}
func (h *CommunityHandlers) ApproveSubmission(w http.ResponseWriter, r *http.Request) {
	published, err := h.submissions.Approve(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, published)
}

type rejectRequest struct {
	Reason string `json:"reason" validate:"max=1000"`
}

// RejectSubmission handles POST /api/v1/recipe-submissions/reject/{token}.
// The body is optional.
func (h *CommunityHandlers) RejectSubmission(w http.ResponseWriter, r *http.Request) {
	var req rejectRequest
	if r.ContentLength != 0 {
		if err := h.decode(w, r, &req); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	if err := h.submissions.Reject(r.Context(), chi.URLParam(r, "token"), req.Reason); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Submission rejected"})
}

// UploadImage handles POST /api/v1/upload/image with a multipart "file" field
func (h *CommunityHandlers) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, media.MaxImageSize+multipartOverhead)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			h.writeError(w, r, errors.NewPayloadTooLargeError(media.MaxImageSize))
			return
		}
		h.writeError(w, r, errors.NewBadRequestError("no file uploaded").WithCause(err))
		return
	}
	defer file.Close()

	uploaded, err := h.media.UploadImage(r.Context(), inbound.UploadImageCommand{
		OriginalName: header.Filename,
		Size:         header.Size,
		Body:         file,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, uploaded)
}

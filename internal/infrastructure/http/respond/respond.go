// Package respond writes JSON bodies and AppError responses for the REST API
package respond

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/foodtrack/api/pkg/errors"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// JSON writes body with the given status
func JSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}

// NoContent writes 204
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error renders err as an ErrorResponse. Errors that are not AppErrors are
// logged and reported as internal errors without their message.
func Error(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		appErr = errors.NewInternalError("An unexpected error occurred").WithCause(err)
	}

	status := appErr.StatusCode()
	requestID := middleware.GetReqID(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("code", string(appErr.Code)),
			zap.Error(appErr),
			zap.NamedError("cause", appErr.Cause),
		)
	}

	JSON(w, status, errors.ToErrorResponse(appErr, requestID))
}

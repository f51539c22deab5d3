// Package handlers provides HTTP handlers for the REST API
package handlers

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/foodtrack/api/internal/infrastructure/http/middleware"
	"github.com/foodtrack/api/internal/infrastructure/http/respond"
	"github.com/foodtrack/api/internal/infrastructure/security"
	"github.com/foodtrack/api/pkg/errors"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxBodySize bounds JSON request bodies
const maxBodySize = 1 << 20

// base carries what every handler group needs
type base struct {
	validator *security.Validator
	logger    *zap.Logger
}

func (b base) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	respond.JSON(w, status, body)
}

func (b base) writeError(w http.ResponseWriter, r *http.Request, err error) {
	respond.Error(w, r, b.logger, err)
}

// decode reads a JSON body into dst and validates it
func (b base) decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return errors.NewUnsupportedMediaTypeError(ct)
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case stderrors.As(err, &tooLarge):
			return errors.NewPayloadTooLargeError(maxBodySize)
		case stderrors.Is(err, io.EOF):
			return errors.NewBadRequestError("Request body is required")
		default:
			return errors.NewBadRequestError("Invalid JSON payload").WithCause(err)
		}
	}
	return b.validator.Struct(dst)
}

// currentUser returns the authenticated caller; routes using it sit behind
// middleware.Authenticate.
func currentUser(r *http.Request) (uuid.UUID, error) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, errors.NewUnauthorizedError("")
	}
	return id, nil
}

// pathUUID parses a uuid route parameter
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.NewBadRequestError("Invalid " + name).WithMetadata(name, raw)
	}
	return id, nil
}

// queryInt parses an optional integer query parameter
func queryInt(r *http.Request, name string) (*int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, errors.NewValidationError(name + " must be an integer").WithMetadata(name, raw)
	}
	return &n, nil
}

// queryList accepts repeated parameters and comma-separated values
func queryList(r *http.Request, name string) []string {
	var out []string
	for _, raw := range r.URL.Query()[name] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// NotFound renders unknown routes as a JSON error
func NotFound(w http.ResponseWriter, r *http.Request, logger *zap.Logger) {
	respond.Error(w, r, logger, errors.NewNotFoundError("route").WithMetadata("path", r.URL.Path))
}

// MethodNotAllowed renders a JSON error for a known route with the wrong method
func MethodNotAllowed(w http.ResponseWriter, r *http.Request, logger *zap.Logger) {
	respond.Error(w, r, logger, errors.NewAppError(
		errors.CodeMethodNotAllowed,
		"Method not allowed",
		r.Method+" is not supported on "+r.URL.Path,
	))
}

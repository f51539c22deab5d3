package testutils

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/foodtrack/api/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertAppError asserts err is an AppError with the given code
func AssertAppError(t *testing.T, err error, code errors.ErrorCode, msgAndArgs ...interface{}) {
	t.Helper()
	require.Error(t, err, msgAndArgs...)
	assert.Equal(t, code, errors.GetCode(err), msgAndArgs...)
}

// AssertStatus asserts err maps onto the given HTTP status
func AssertStatus(t *testing.T, err error, status int, msgAndArgs ...interface{}) {
	t.Helper()
	require.Error(t, err, msgAndArgs...)
	appErr := errors.Wrap(err, "unexpected error")
	assert.Equal(t, status, appErr.StatusCode(), msgAndArgs...)
}

// DecodeJSON asserts the recorded response has the given status and decodes its body
func DecodeJSON(t *testing.T, rec *httptest.ResponseRecorder, status int, target interface{}) {
	t.Helper()
	require.Equal(t, status, rec.Code, "body: %s", rec.Body.String())
	require.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	if target != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), target))
	}
}

// DecodeError asserts the recorded response is an error envelope with code
func DecodeError(t *testing.T, rec *httptest.ResponseRecorder, status int, code errors.ErrorCode) errors.ErrorResponse {
	t.Helper()
	var body errors.ErrorResponse
	DecodeJSON(t, rec, status, &body)
	assert.Equal(t, code, body.Error.Code)
	return body
}

package response

import (
	"encoding/json/v2"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daylistapp/daylist-server/internal/errors"
)

func decode(t *testing.T, body []byte) Envelope {
	t.Helper()
	var envelope Envelope
	require.NoError(t, json.Unmarshal(body, &envelope))
	return envelope
}

func TestSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	Success(w, map[string]string{"id": "list_1"}, nil)

	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	envelope := decode(t, w.Body.Bytes())
	assert.True(t, envelope.Success)
	assert.Empty(t, envelope.Error)
}

func TestHandleError_DomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", errors.NotFound("list not found"), 404, "NOT_FOUND"},
		{"forbidden", errors.Forbidden("not a collaborator on this list"), 403, "FORBIDDEN"},
		{"validation", errors.Validation("todo text cannot be empty"), 400, "VALIDATION"},
		{"unavailable", errors.Unavailable("store unavailable"), 503, "UNAVAILABLE"},
		{"invalid credentials", errors.InvalidCredentials("invalid email or password"), 401, "INVALID_CREDENTIALS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			HandleError(w, tt.err, nil)

			assert.Equal(t, tt.wantStatus, w.Code)
			envelope := decode(t, w.Body.Bytes())
			assert.False(t, envelope.Success)
			assert.Equal(t, tt.wantCode, envelope.Code)
			assert.NotEmpty(t, envelope.Error)
		})
	}
}

func TestHandleError_UnknownError(t *testing.T) {
	w := httptest.NewRecorder()
	HandleError(w, assert.AnError, nil)

	assert.Equal(t, 500, w.Code)
	envelope := decode(t, w.Body.Bytes())
	assert.Equal(t, "internal server error", envelope.Error)
	assert.Empty(t, envelope.Code)
}

func TestHandleError_ValidationDetails(t *testing.T) {
	w := httptest.NewRecorder()
	HandleError(w, errors.ValidationWithDetails("validation failed", map[string]string{"email": "must be a valid email"}), nil)

	assert.Equal(t, 400, w.Code)
	envelope := decode(t, w.Body.Bytes())
	require.NotNil(t, envelope.Details)
}

package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds_StatusAndCode(t *testing.T) {
	tests := []struct {
		name   string
		err    AppError
		status int
		code   string
	}{
		{"not found", NewNotFoundError("Pipeline", "p1"), http.StatusNotFound, "NOT_FOUND"},
		{"type mismatch", NewTypeMismatchError("deal", "people"), http.StatusBadRequest, "TYPE_MISMATCH"},
		{"invalid state", NewInvalidStateError("Pipeline must have at least one stage"), http.StatusBadRequest, "INVALID_STATE"},
		{"duplicate", NewDuplicateNameError("Pipeline", "Sales", "view"), http.StatusConflict, "DUPLICATE_NAME"},
		{"conflict", NewStorageConflictError("Pipeline", "p1"), http.StatusConflict, "STORAGE_CONFLICT"},
		{"validation", NewValidationError("name", "required"), http.StatusBadRequest, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, GetHTTPStatus(tt.err))
			assert.Equal(t, tt.code, GetErrorCode(tt.err))
		})
	}
}

func TestErrorKinds_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("move entity: %w", NewStorageConflictError("Pipeline", "p1"))

	assert.True(t, IsStorageConflict(wrapped))
	assert.False(t, IsNotFound(wrapped))
	assert.Equal(t, http.StatusConflict, GetHTTPStatus(wrapped))
}

func TestTypeMismatchMessage(t *testing.T) {
	err := NewTypeMismatchError("deal", "people")
	assert.Equal(t, "Invalid entity type. Pipeline accepts 'deal' only.", err.Error())
	assert.True(t, IsTypeMismatch(err))
}

func TestUnknownError(t *testing.T) {
	err := fmt.Errorf("boom")
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(err))
	assert.Equal(t, "UNKNOWN_ERROR", GetErrorCode(err))
}

func TestInternalErrorUnwrap(t *testing.T) {
	cause := NewNotFoundError("Deal", "d1")
	err := NewInternalError("load deals", cause)
	assert.True(t, IsNotFound(err))
}

package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_StatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want int
	}{
		{"not found", NotFound("event", nil), http.StatusNotFound},
		{"validation", Validation(FieldError{Field: "title", Message: "required"}), http.StatusBadRequest},
		{"invalid state", InvalidState("Only pending events can be approved"), http.StatusBadRequest},
		{"duplicate", Duplicate("already rated"), http.StatusBadRequest},
		{"forbidden", Forbidden("nope"), http.StatusForbidden},
		{"unauthorized", Unauthorized(nil), http.StatusUnauthorized},
		{"conflict", Conflict("email taken", nil), http.StatusConflict},
		{"internal", Internal(fmt.Errorf("boom")), http.StatusInternalServerError},
		{"delivery", Delivery(fmt.Errorf("smtp down")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.StatusCode())
		})
	}
}

func TestAs_WrappedError(t *testing.T) {
	base := InvalidState("Can only update pending events")
	wrapped := fmt.Errorf("update event: %w", base)

	appErr, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrInvalidState, appErr.Code)
	assert.True(t, IsCode(wrapped, ErrInvalidState))
	assert.False(t, IsCode(wrapped, ErrNotFound))
	assert.False(t, IsCode(fmt.Errorf("plain"), ErrInternal))
}

func TestAppError_ErrorIncludesCause(t *testing.T) {
	err := NotFound("event", fmt.Errorf("sql: no rows in result set"))
	assert.Equal(t, "event not found: sql: no rows in result set", err.Error())
	assert.Equal(t, "Validation error", Validation().Error())
}

package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs_MatchesWrappedAppError(t *testing.T) {
	err := fmt.Errorf("append failed: %w", NotFound("Room", nil))

	assert.True(t, Is(err, CodeNotFound))
	assert.False(t, Is(err, CodeForbidden))
	assert.False(t, Is(fmt.Errorf("plain"), CodeNotFound))
}

func TestAs_FallsBackToInternal(t *testing.T) {
	appErr := As(fmt.Errorf("disk full"))

	assert.Equal(t, CodeInternal, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)

	forbidden := Forbidden("no access", nil)
	assert.Same(t, forbidden, As(forbidden))
}

func TestValidation_UsesBadRequestStatus(t *testing.T) {
	err := Validation("message content is required")

	assert.Equal(t, CodeValidation, err.Code)
	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.Equal(t, "VALIDATION_ERROR: message content is required", err.Error())
}

package errors_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/listenupapp/library-server/internal/errors"
)

func TestError_IsMatchesByCode(t *testing.T) {
	err := apperrors.BadUserInput("Title must be at least 5 characters long")

	assert.ErrorIs(t, err, apperrors.ErrBadUserInput)
	assert.NotErrorIs(t, err, apperrors.ErrUnauthenticated)

	wrapped := fmt.Errorf("add book: %w", err)
	assert.ErrorIs(t, wrapped, apperrors.ErrBadUserInput)
}

func TestError_MessageHidesCause(t *testing.T) {
	cause := fmt.Errorf("badger: txn conflict")
	err := apperrors.Wrap(cause, apperrors.CodeInternal, "internal server error")

	assert.Equal(t, "internal server error", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestError_Extensions(t *testing.T) {
	err := apperrors.Unauthenticated("not authenticated")
	assert.Equal(t, map[string]any{"code": "UNAUTHENTICATED"}, err.Extensions())

	detailed := apperrors.BadUserInputWithDetails("validation failed", map[string]string{"title": "is required"})
	ext := detailed.Extensions()
	assert.Equal(t, "BAD_USER_INPUT", ext["code"])
	assert.Equal(t, map[string]string{"title": "is required"}, ext["details"])
}

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code apperrors.Code
		want int
	}{
		{apperrors.CodeUnauthenticated, http.StatusUnauthorized},
		{apperrors.CodeBadUserInput, http.StatusBadRequest},
		{apperrors.CodeNotFound, http.StatusNotFound},
		{apperrors.CodeTooManyRequests, http.StatusTooManyRequests},
		{apperrors.CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, apperrors.CodeBadUserInput, apperrors.CodeOf(fmt.Errorf("x: %w", apperrors.ErrBadUserInput)))
	assert.Equal(t, apperrors.CodeInternal, apperrors.CodeOf(fmt.Errorf("plain")))
}

package store_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/listenupapp/library-server/internal/store"
)

func TestError_Error(t *testing.T) {
	err := &store.Error{
		Code:    http.StatusNotFound,
		Message: "not found",
	}

	assert.Equal(t, "not found", err.Error())
}

func TestError_ErrorWithCause(t *testing.T) {
	cause := errors.New("underlying error")
	err := store.ErrNotFound.WithCause(cause)

	assert.Contains(t, err.Error(), "resource not found")
	assert.Contains(t, err.Error(), "underlying error")
	assert.Equal(t, cause, err.Unwrap())
}

func TestError_IsMatchesDerivedErrors(t *testing.T) {
	err := store.ErrAlreadyExists.WithMessage(`name "Robert Martin" already exists`)

	assert.ErrorIs(t, err, store.ErrAlreadyExists)
	assert.NotErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, fmt.Errorf("create author: %w", err), store.ErrAlreadyExists)
}

func TestError_WithMessageKeepsOriginal(t *testing.T) {
	modified := store.ErrNotFound.WithMessage("author not found")

	assert.Equal(t, "author not found", modified.Message)
	assert.Equal(t, "resource not found", store.ErrNotFound.Message)
}

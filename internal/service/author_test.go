package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/listenupapp/library-server/internal/errors"
	"github.com/listenupapp/library-server/internal/id"
)

func TestAuthorService_AddAuthor(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	author, err := env.authors.AddAuthor(ctx, "  Joshua Kerievsky ")
	require.NoError(t, err)
	assert.True(t, id.HasPrefix(author.ID, id.PrefixAuthor))
	assert.Equal(t, "Joshua Kerievsky", author.Name)
	assert.Nil(t, author.Born)

	_, err = env.authors.AddAuthor(ctx, "Joshua Kerievsky")
	assert.ErrorIs(t, err, apperrors.ErrBadUserInput)

	_, err = env.authors.AddAuthor(ctx, "")
	assert.ErrorIs(t, err, apperrors.ErrBadUserInput)

	n, err := env.authors.CountAuthors(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAuthorService_EditAuthor(t *testing.T) {
	env := setupTest(t)
	ctx := env.loggedIn(t)

	created, err := env.authors.AddAuthor(ctx, "Sandi Metz")
	require.NoError(t, err)

	updated, err := env.authors.EditAuthor(ctx, "Sandi Metz", 1953)
	require.NoError(t, err)
	require.NotNil(t, updated)
	require.NotNil(t, updated.Born)
	assert.Equal(t, 1953, *updated.Born)

	reloaded, err := env.authors.GetAuthor(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.Born)
	assert.Equal(t, 1953, *reloaded.Born)
}

func TestAuthorService_EditAuthor_UnknownReturnsNil(t *testing.T) {
	env := setupTest(t)
	ctx := env.loggedIn(t)

	author, err := env.authors.EditAuthor(ctx, "Nobody Atall", 1900)
	assert.NoError(t, err)
	assert.Nil(t, author)
}

func TestAuthorService_EditAuthor_Unauthenticated(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	_, err := env.authors.AddAuthor(ctx, "Sandi Metz")
	require.NoError(t, err)

	author, err := env.authors.EditAuthor(ctx, "Sandi Metz", 1953)
	assert.Nil(t, author)
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestAuthorService_GetAuthor_NotFound(t *testing.T) {
	env := setupTest(t)

	_, err := env.authors.GetAuthor(context.Background(), id.MustGenerate(id.PrefixAuthor))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/listenupapp/library-server/internal/auth"
	"github.com/listenupapp/library-server/internal/domain"
	"github.com/listenupapp/library-server/internal/pubsub"
	"github.com/listenupapp/library-server/internal/ratelimit"
	"github.com/listenupapp/library-server/internal/search"
	"github.com/listenupapp/library-server/internal/store"
)

const testSecret = "s3cret-for-tests"

type testEnv struct {
	repo    store.Repository
	tokens  *auth.TokenService
	broker  *pubsub.Broker
	auth    *AuthService
	authors *AuthorService
	books   *BookService
	search  *SearchService
}

// setupTest wires every service over a temporary Badger store.
func setupTest(t *testing.T) *testEnv {
	t.Helper()

	tmpDir := t.TempDir()

	repo, err := store.New(filepath.Join(tmpDir, "db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	key, err := auth.LoadOrGenerateKey(tmpDir)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, 0)
	require.NoError(t, err)

	limiter := ratelimit.PerMinute(100)
	t.Cleanup(limiter.Stop)

	authService, err := NewAuthService(repo, tokens, testSecret, limiter, nil)
	require.NoError(t, err)

	index, err := search.NewBookIndex(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	broker := pubsub.NewBroker(nil, 0)
	t.Cleanup(func() { _ = broker.Shutdown(context.Background()) })

	searchService := NewSearchService(index, repo, nil)
	authors := NewAuthorService(repo, nil)

	return &testEnv{
		repo:    repo,
		tokens:  tokens,
		broker:  broker,
		auth:    authService,
		authors: authors,
		books:   NewBookService(repo, authors, searchService, broker, nil),
		search:  searchService,
	}
}

// loggedIn creates a user and returns a context carrying it.
func (e *testEnv) loggedIn(t *testing.T) context.Context {
	t.Helper()
	user, err := e.auth.CreateUser(context.Background(), CreateUserRequest{
		Username:      "mluukkai",
		FavoriteGenre: "refactoring",
	})
	require.NoError(t, err)
	return auth.WithCurrentUser(context.Background(), user)
}

func (e *testEnv) addBook(t *testing.T, ctx context.Context, title, author string, genres ...string) *domain.Book {
	t.Helper()
	book, err := e.books.AddBook(ctx, AddBookRequest{
		Title:      title,
		AuthorName: author,
		Published:  2000,
		Genres:     genres,
	})
	require.NoError(t, err)
	return book
}

func ptr[T any](v T) *T {
	return &v
}

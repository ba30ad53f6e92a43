// Package storetest holds the behaviour every store.Repository backend must share.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/library-server/internal/domain"
	"github.com/listenupapp/library-server/internal/id"
	"github.com/listenupapp/library-server/internal/store"
)

// Factory opens an empty repository. It should register its own cleanup.
type Factory func(t *testing.T) store.Repository

// Run exercises a repository backend.
func Run(t *testing.T, open Factory) {
	t.Run("CreateAndGetAuthor", func(t *testing.T) { testCreateAndGetAuthor(t, open(t)) })
	t.Run("DuplicateAuthorName", func(t *testing.T) { testDuplicateAuthorName(t, open(t)) })
	t.Run("ConcurrentAuthorCreation", func(t *testing.T) { testConcurrentAuthorCreation(t, open(t)) })
	t.Run("UpdateAuthor", func(t *testing.T) { testUpdateAuthor(t, open(t)) })
	t.Run("ListAuthorsOrdered", func(t *testing.T) { testListAuthorsOrdered(t, open(t)) })
	t.Run("BookRequiresAuthor", func(t *testing.T) { testBookRequiresAuthor(t, open(t)) })
	t.Run("ListBooksFilters", func(t *testing.T) { testListBooksFilters(t, open(t)) })
	t.Run("GenreIndexKeepsEveryScript", func(t *testing.T) { testGenreIndexKeepsEveryScript(t, open(t)) })
	t.Run("Counts", func(t *testing.T) { testCounts(t, open(t)) })
	t.Run("Users", func(t *testing.T) { testUsers(t, open(t)) })
	t.Run("NotFound", func(t *testing.T) { testNotFound(t, open(t)) })
}

// NewAuthor builds an unsaved author with a fresh id.
func NewAuthor(name string) *domain.Author {
	a := &domain.Author{Name: name}
	a.ID = id.MustGenerate(id.PrefixAuthor)
	a.InitTimestamps()
	return a
}

// NewBook builds an unsaved book with a fresh id.
func NewBook(title, authorID string, published int, genres ...string) *domain.Book {
	b := &domain.Book{Title: title, AuthorID: authorID, Published: published, Genres: genres}
	b.ID = id.MustGenerate(id.PrefixBook)
	b.InitTimestamps()
	return b
}

// NewUser builds an unsaved user with a fresh id.
func NewUser(username, favoriteGenre string) *domain.User {
	u := &domain.User{Username: username, FavoriteGenre: favoriteGenre}
	u.ID = id.MustGenerate(id.PrefixUser)
	u.InitTimestamps()
	return u
}

func testCreateAndGetAuthor(t *testing.T, repo store.Repository) {
	ctx := context.Background()
	author := NewAuthor("Robert Martin")
	author.SetBorn(1952)
	require.NoError(t, repo.CreateAuthor(ctx, author))

	got, err := repo.GetAuthor(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, "Robert Martin", got.Name)
	require.NotNil(t, got.Born)
	assert.Equal(t, 1952, *got.Born)

	byName, err := repo.GetAuthorByName(ctx, "Robert Martin")
	require.NoError(t, err)
	assert.Equal(t, author.ID, byName.ID)

	byName, err = repo.GetAuthorByName(ctx, "  Robert Martin ")
	require.NoError(t, err)
	assert.Equal(t, author.ID, byName.ID)
}

func testDuplicateAuthorName(t *testing.T, repo store.Repository) {
	ctx := context.Background()
	require.NoError(t, repo.CreateAuthor(ctx, NewAuthor("Fyodor Dostoevsky")))

	err := repo.CreateAuthor(ctx, NewAuthor("Fyodor Dostoevsky"))
	assert.ErrorIs(t, err, store.ErrAlreadyExists)

	count, err := repo.CountAuthors(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func testConcurrentAuthorCreation(t *testing.T, repo store.Repository) {
	ctx := context.Background()
	const writers = 8

	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := range writers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.CreateAuthor(ctx, NewAuthor("Sandi Metz"))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, store.ErrAlreadyExists)
	}
	assert.Equal(t, 1, succeeded)

	count, err := repo.CountAuthors(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func testUpdateAuthor(t *testing.T, repo store.Repository) {
	ctx := context.Background()
	author := NewAuthor("Joshua Kerievsky")
	require.NoError(t, repo.CreateAuthor(ctx, author))

	author.SetBorn(1960)
	require.NoError(t, repo.UpdateAuthor(ctx, author))

	got, err := repo.GetAuthorByName(ctx, "Joshua Kerievsky")
	require.NoError(t, err)
	require.NotNil(t, got.Born)
	assert.Equal(t, 1960, *got.Born)

	missing := NewAuthor("Nobody Here")
	assert.ErrorIs(t, repo.UpdateAuthor(ctx, missing), store.ErrNotFound)
}

func testListAuthorsOrdered(t *testing.T, repo store.Repository) {
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)
	names := []string{"Third Author", "First Author", "Second Author"}
	offsets := []time.Duration{3, 1, 2}
	for i, name := range names {
		a := NewAuthor(name)
		a.CreatedAt = base.Add(offsets[i] * time.Minute)
		require.NoError(t, repo.CreateAuthor(ctx, a))
	}

	authors, err := repo.ListAuthors(ctx)
	require.NoError(t, err)
	require.Len(t, authors, 3)
	assert.Equal(t, "First Author", authors[0].Name)
	assert.Equal(t, "Second Author", authors[1].Name)
	assert.Equal(t, "Third Author", authors[2].Name)
}

func testBookRequiresAuthor(t *testing.T, repo store.Repository) {
	ctx := context.Background()
	err := repo.CreateBook(ctx, NewBook("Orphaned", id.MustGenerate(id.PrefixAuthor), 2001))
	assert.ErrorIs(t, err, store.ErrNotFound)

	count, err := repo.CountBooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func testListBooksFilters(t *testing.T, repo store.Repository) {
	ctx := context.Background()
	martin := NewAuthor("Robert Martin")
	fowler := NewAuthor("Martin Fowler")
	require.NoError(t, repo.CreateAuthor(ctx, martin))
	require.NoError(t, repo.CreateAuthor(ctx, fowler))

	base := time.Now().Add(-time.Hour)
	books := []*domain.Book{
		NewBook("Clean Code", martin.ID, 2008, "refactoring"),
		NewBook("Agile software development", martin.ID, 2002, "agile", "patterns"),
		NewBook("Refactoring, edition 2", fowler.ID, 2018, "refactoring"),
		NewBook("Crime and punishment", fowler.ID, 1866, "Classic", "crime"),
	}
	for i, b := range books {
		b.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.CreateBook(ctx, b))
	}

	all, err := repo.ListBooks(ctx, store.BookFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "Clean Code", all[0].Title)
	assert.Equal(t, "Crime and punishment", all[3].Title)
	assert.Equal(t, []string{"agile", "patterns"}, all[1].Genres)

	byAuthor, err := repo.ListBooks(ctx, store.BookFilter{AuthorID: martin.ID})
	require.NoError(t, err)
	require.Len(t, byAuthor, 2)
	assert.Equal(t, "Clean Code", byAuthor[0].Title)
	assert.Equal(t, "Agile software development", byAuthor[1].Title)

	byGenre, err := repo.ListBooks(ctx, store.BookFilter{GenreSlug: "refactoring"})
	require.NoError(t, err)
	require.Len(t, byGenre, 2)
	assert.Equal(t, "Clean Code", byGenre[0].Title)
	assert.Equal(t, "Refactoring, edition 2", byGenre[1].Title)

	classic, err := repo.ListBooks(ctx, store.BookFilter{GenreSlug: "classic"})
	require.NoError(t, err)
	require.Len(t, classic, 1)
	assert.Equal(t, "Crime and punishment", classic[0].Title)

	both, err := repo.ListBooks(ctx, store.BookFilter{AuthorID: fowler.ID, GenreSlug: "refactoring"})
	require.NoError(t, err)
	require.Len(t, both, 1)
	assert.Equal(t, "Refactoring, edition 2", both[0].Title)

	none, err := repo.ListBooks(ctx, store.BookFilter{AuthorID: martin.ID, GenreSlug: "crime"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testGenreIndexKeepsEveryScript(t *testing.T, repo store.Repository) {
	ctx := context.Background()
	author := NewAuthor("Arkady Strugatsky")
	require.NoError(t, repo.CreateAuthor(ctx, author))

	picnic := NewBook("Пикник на обочине", author.ID, 1972, "Фантастика", "C++", "小説")
	lang := NewBook("The C Programming Language", author.ID, 1978, "C", "C#")
	require.NoError(t, repo.CreateBook(ctx, picnic))
	require.NoError(t, repo.CreateBook(ctx, lang))

	got, err := repo.GetBook(ctx, picnic.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Фантастика", "C++", "小説"}, got.Genres)

	tests := []struct {
		slug string
		want string
	}{
		{"фантастика", picnic.ID},
		{"c++", picnic.ID},
		{"小説", picnic.ID},
		{"c", lang.ID},
		{"c#", lang.ID},
	}
	for _, tt := range tests {
		books, err := repo.ListBooks(ctx, store.BookFilter{GenreSlug: tt.slug})
		require.NoError(t, err)
		require.Len(t, books, 1, tt.slug)
		assert.Equal(t, tt.want, books[0].ID, tt.slug)
	}
}

func testCounts(t *testing.T, repo store.Repository) {
	ctx := context.Background()
	martin := NewAuthor("Robert Martin")
	idle := NewAuthor("Idle Author")
	require.NoError(t, repo.CreateAuthor(ctx, martin))
	require.NoError(t, repo.CreateAuthor(ctx, idle))
	require.NoError(t, repo.CreateBook(ctx, NewBook("Clean Code", martin.ID, 2008)))
	require.NoError(t, repo.CreateBook(ctx, NewBook("Clean Architecture", martin.ID, 2017)))

	books, err := repo.CountBooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, books)

	authors, err := repo.CountAuthors(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, authors)

	n, err := repo.CountBooksByAuthor(ctx, martin.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = repo.CountBooksByAuthor(ctx, idle.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func testUsers(t *testing.T, repo store.Repository) {
	ctx := context.Background()
	user := NewUser("mluukkai", "refactoring")
	require.NoError(t, repo.CreateUser(ctx, user))

	got, err := repo.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "mluukkai", got.Username)
	assert.Equal(t, "refactoring", got.FavoriteGenre)

	byName, err := repo.GetUserByUsername(ctx, "mluukkai")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)

	err = repo.CreateUser(ctx, NewUser("mluukkai", "crime"))
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
}

func testNotFound(t *testing.T, repo store.Repository) {
	ctx := context.Background()

	_, err := repo.GetAuthor(ctx, id.MustGenerate(id.PrefixAuthor))
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = repo.GetAuthorByName(ctx, "Nobody")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = repo.GetBook(ctx, id.MustGenerate(id.PrefixBook))
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = repo.GetUser(ctx, "not-a-user-id")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = repo.GetUserByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, store.ErrNotFound)

	books, err := repo.ListBooks(ctx, store.BookFilter{})
	require.NoError(t, err)
	assert.Empty(t, books)
}

// Package store persists the library catalogue.
//
// Two backends implement Repository: the Badger key-value store in this
// package and the SQLite store in the sqlite subpackage.
package store

import (
	"cmp"
	"context"
	"slices"

	"github.com/listenupapp/library-server/internal/domain"
)

// BookFilter narrows ListBooks. Zero fields do not filter; set fields compose with AND.
type BookFilter struct {
	AuthorID  string
	GenreSlug string
}

// Repository defines every persistence operation the library needs.
//
// Lookups that find nothing return ErrNotFound. Creating a record whose id,
// author name or username is already taken returns ErrAlreadyExists.
// Lists are ordered by creation time.
type Repository interface {
	// Lifecycle
	Close() error

	// Authors
	CreateAuthor(ctx context.Context, author *domain.Author) error
	GetAuthor(ctx context.Context, id string) (*domain.Author, error)
	GetAuthorByName(ctx context.Context, name string) (*domain.Author, error)
	UpdateAuthor(ctx context.Context, author *domain.Author) error
	ListAuthors(ctx context.Context) ([]*domain.Author, error)
	CountAuthors(ctx context.Context) (int, error)

	// Books
	CreateBook(ctx context.Context, book *domain.Book) error
	GetBook(ctx context.Context, id string) (*domain.Book, error)
	ListBooks(ctx context.Context, filter BookFilter) ([]*domain.Book, error)
	CountBooks(ctx context.Context) (int, error)
	CountBooksByAuthor(ctx context.Context, authorID string) (int, error)

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
}

// sortByCreation orders records oldest first, breaking ties by id.
func sortByCreation[T any](items []*T, record func(*T) *domain.Record) {
	slices.SortStableFunc(items, func(a, b *T) int {
		ra, rb := record(a), record(b)
		if c := ra.CreatedAt.Compare(rb.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(ra.ID, rb.ID)
	})
}

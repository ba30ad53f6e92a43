package store

import (
	"context"
	"fmt"
	"iter"

	"github.com/listenupapp/library-server/internal/domain"
	"github.com/listenupapp/library-server/internal/genre"
	"github.com/listenupapp/library-server/internal/id"
)

// CreateBook stores a new book. The referenced author must exist.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) error {
	if _, err := s.GetAuthor(ctx, book.AuthorID); err != nil {
		return fmt.Errorf("create book: author %s: %w", book.AuthorID, err)
	}
	if err := s.Books.Create(ctx, book.ID, book); err != nil {
		return fmt.Errorf("create book: %w", err)
	}
	return nil
}

// GetBook retrieves a book by id.
func (s *Store) GetBook(ctx context.Context, bookID string) (*domain.Book, error) {
	if !id.HasPrefix(bookID, id.PrefixBook) {
		return nil, ErrNotFound
	}
	return s.Books.Get(ctx, bookID)
}

// ListBooks returns the books matching filter ordered by creation time.
// The most selective index available drives the scan; the genre filter is
// re-checked in memory when the author index was used.
func (s *Store) ListBooks(ctx context.Context, filter BookFilter) ([]*domain.Book, error) {
	var seq iter.Seq2[*domain.Book, error]
	switch {
	case filter.AuthorID != "":
		seq = s.Books.ListByIndex(ctx, "author", filter.AuthorID)
	case filter.GenreSlug != "":
		seq = s.Books.ListByIndex(ctx, "genre", filter.GenreSlug)
	default:
		seq = s.Books.List(ctx)
	}

	books := []*domain.Book{}
	for b, err := range seq {
		if err != nil {
			return nil, fmt.Errorf("list books: %w", err)
		}
		if filter.GenreSlug != "" && !b.HasGenre(filter.GenreSlug, genre.Slugify) {
			continue
		}
		books = append(books, b)
	}

	sortByCreation(books, func(b *domain.Book) *domain.Record { return &b.Record })
	return books, nil
}

// CountBooks returns the number of stored books.
func (s *Store) CountBooks(ctx context.Context) (int, error) {
	return s.Books.Count(ctx)
}

// CountBooksByAuthor returns the number of books referencing authorID.
func (s *Store) CountBooksByAuthor(ctx context.Context, authorID string) (int, error) {
	return s.Books.CountByIndex(ctx, "author", authorID)
}

package store

import (
	"context"
	"fmt"

	"github.com/listenupapp/library-server/internal/domain"
	"github.com/listenupapp/library-server/internal/id"
)

// CreateAuthor stores a new author.
func (s *Store) CreateAuthor(ctx context.Context, author *domain.Author) error {
	if err := s.Authors.Create(ctx, author.ID, author); err != nil {
		return fmt.Errorf("create author: %w", err)
	}
	return nil
}

// GetAuthor retrieves an author by id.
func (s *Store) GetAuthor(ctx context.Context, authorID string) (*domain.Author, error) {
	if !id.HasPrefix(authorID, id.PrefixAuthor) {
		return nil, ErrNotFound
	}
	return s.Authors.Get(ctx, authorID)
}

// GetAuthorByName retrieves an author by exact (normalized) name.
func (s *Store) GetAuthorByName(ctx context.Context, name string) (*domain.Author, error) {
	return s.Authors.GetByIndex(ctx, "name", name)
}

// UpdateAuthor replaces a stored author.
func (s *Store) UpdateAuthor(ctx context.Context, author *domain.Author) error {
	if err := s.Authors.Update(ctx, author.ID, author); err != nil {
		return fmt.Errorf("update author: %w", err)
	}
	return nil
}

// ListAuthors returns every author ordered by creation time.
func (s *Store) ListAuthors(ctx context.Context) ([]*domain.Author, error) {
	authors := []*domain.Author{}
	for a, err := range s.Authors.List(ctx) {
		if err != nil {
			return nil, fmt.Errorf("list authors: %w", err)
		}
		authors = append(authors, a)
	}

	sortByCreation(authors, func(a *domain.Author) *domain.Record { return &a.Record })
	return authors, nil
}

// CountAuthors returns the number of stored authors.
func (s *Store) CountAuthors(ctx context.Context) (int, error) {
	return s.Authors.Count(ctx)
}

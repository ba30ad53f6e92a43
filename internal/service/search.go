package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/listenupapp/library-server/internal/domain"
	"github.com/listenupapp/library-server/internal/search"
	"github.com/listenupapp/library-server/internal/store"
)

// SearchService bridges the search index with the store.
type SearchService struct {
	index  *search.BookIndex
	repo   store.Repository
	logger *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(index *search.BookIndex, repo store.Repository, logger *slog.Logger) *SearchService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SearchService{
		index:  index,
		repo:   repo,
		logger: logger,
	}
}

// IndexBook indexes a single book under its author's name.
func (s *SearchService) IndexBook(book *domain.Book, authorName string) error {
	if err := s.index.IndexBook(search.NewBookDocument(book, authorName)); err != nil {
		return fmt.Errorf("index book: %w", err)
	}
	s.logger.Debug("indexed book", "id", book.ID, "title", book.Title)
	return nil
}

// SearchBooks returns the books best matching text, best match first.
// Hits whose book has vanished from the store are skipped.
func (s *SearchService) SearchBooks(ctx context.Context, text string, limit int) ([]*domain.Book, error) {
	hits, err := s.index.Search(ctx, text, limit)
	if err != nil {
		return nil, internalError(ctx, s.logger, "search books", err)
	}

	books := make([]*domain.Book, 0, len(hits))
	for _, hit := range hits {
		book, err := s.repo.GetBook(ctx, hit.ID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, internalError(ctx, s.logger, "load search hit", err)
		}
		books = append(books, book)
	}
	return books, nil
}

// Rebuild reindexes every stored book.
func (s *SearchService) Rebuild(ctx context.Context) error {
	authors, err := s.repo.ListAuthors(ctx)
	if err != nil {
		return fmt.Errorf("list authors: %w", err)
	}
	names := make(map[string]string, len(authors))
	for _, a := range authors {
		names[a.ID] = a.Name
	}

	books, err := s.repo.ListBooks(ctx, store.BookFilter{})
	if err != nil {
		return fmt.Errorf("list books: %w", err)
	}

	docs := make([]*search.BookDocument, 0, len(books))
	for _, b := range books {
		docs = append(docs, search.NewBookDocument(b, names[b.AuthorID]))
	}

	return s.index.Rebuild(docs)
}

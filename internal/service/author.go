package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/listenupapp/library-server/internal/domain"
	apperrors "github.com/listenupapp/library-server/internal/errors"
	"github.com/listenupapp/library-server/internal/id"
	"github.com/listenupapp/library-server/internal/store"
	"github.com/listenupapp/library-server/internal/validation"
)

// AuthorService manages authors.
type AuthorService struct {
	repo      store.Repository
	validator *validation.Validator
	logger    *slog.Logger
}

// NewAuthorService creates a new author service.
func NewAuthorService(repo store.Repository, logger *slog.Logger) *AuthorService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &AuthorService{
		repo:      repo,
		validator: validation.New(),
		logger:    logger,
	}
}

type addAuthorInput struct {
	Name string `label:"Name" validate:"notblank,max=256"`
}

// newAuthorInput applies to authors created implicitly by addBook.
type newAuthorInput struct {
	Name string `label:"Author name" validate:"min=4,max=256"`
}

// AddAuthor creates an author. Names are unique after normalization.
func (s *AuthorService) AddAuthor(ctx context.Context, name string) (*domain.Author, error) {
	name = store.NormalizeName(name)
	if err := s.validator.Validate(addAuthorInput{Name: name}); err != nil {
		return nil, err
	}

	author, err := s.create(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, apperrors.BadUserInputf("Author %q already exists", name).WithCause(err)
		}
		return nil, internalError(ctx, s.logger, "add author", err)
	}
	return author, nil
}

// EditAuthor sets the birth year of the author called name. The caller must
// be authenticated. An unknown author yields (nil, nil).
func (s *AuthorService) EditAuthor(ctx context.Context, name string, born int) (*domain.Author, error) {
	if _, err := RequireUser(ctx); err != nil {
		return nil, err
	}

	author, err := s.FindByName(ctx, name)
	if err != nil || author == nil {
		return nil, err
	}

	author.SetBorn(born)
	if err := s.repo.UpdateAuthor(ctx, author); err != nil {
		return nil, internalError(ctx, s.logger, "edit author", err)
	}

	s.logger.Info("author updated", "author_id", author.ID, "born", born)
	return author, nil
}

// GetAuthor returns the author with authorID.
func (s *AuthorService) GetAuthor(ctx context.Context, authorID string) (*domain.Author, error) {
	author, err := s.repo.GetAuthor(ctx, authorID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NotFoundf("author %s not found", authorID).WithCause(err)
		}
		return nil, internalError(ctx, s.logger, "get author", err)
	}
	return author, nil
}

// FindByName returns the author called name, or nil when there is none.
func (s *AuthorService) FindByName(ctx context.Context, name string) (*domain.Author, error) {
	author, err := s.repo.GetAuthorByName(ctx, store.NormalizeName(name))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, internalError(ctx, s.logger, "find author", err)
	}
	return author, nil
}

// ListAuthors returns every author, oldest first.
func (s *AuthorService) ListAuthors(ctx context.Context) ([]*domain.Author, error) {
	authors, err := s.repo.ListAuthors(ctx)
	if err != nil {
		return nil, internalError(ctx, s.logger, "list authors", err)
	}
	return authors, nil
}

// CountAuthors returns the number of authors.
func (s *AuthorService) CountAuthors(ctx context.Context) (int, error) {
	n, err := s.repo.CountAuthors(ctx)
	if err != nil {
		return 0, internalError(ctx, s.logger, "count authors", err)
	}
	return n, nil
}

// BookCount returns how many books are credited to authorID.
func (s *AuthorService) BookCount(ctx context.Context, authorID string) (int, error) {
	n, err := s.repo.CountBooksByAuthor(ctx, authorID)
	if err != nil {
		return 0, internalError(ctx, s.logger, "count author books", err)
	}
	return n, nil
}

// validateNew checks a name that addBook is about to create.
func (s *AuthorService) validateNew(name string) error {
	return s.validator.Validate(newAuthorInput{Name: name})
}

// ensure returns the author called name, creating it when missing. When a
// concurrent writer creates the same author first, its record is returned.
func (s *AuthorService) ensure(ctx context.Context, name string) (*domain.Author, error) {
	author, err := s.create(ctx, name)
	if err == nil {
		return author, nil
	}
	if !errors.Is(err, store.ErrAlreadyExists) {
		return nil, err
	}

	s.logger.Debug("author created concurrently, using existing record", "name", name)
	author, err = s.repo.GetAuthorByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("reload author %q: %w", name, err)
	}
	return author, nil
}

func (s *AuthorService) create(ctx context.Context, name string) (*domain.Author, error) {
	authorID, err := id.Generate(id.PrefixAuthor)
	if err != nil {
		return nil, err
	}

	author := &domain.Author{Name: name}
	author.ID = authorID
	author.InitTimestamps()

	if err := s.repo.CreateAuthor(ctx, author); err != nil {
		return nil, err
	}

	s.logger.Info("author created", "author_id", author.ID, "name", author.Name)
	return author, nil
}

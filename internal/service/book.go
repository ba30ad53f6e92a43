package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/listenupapp/library-server/internal/domain"
	apperrors "github.com/listenupapp/library-server/internal/errors"
	"github.com/listenupapp/library-server/internal/genre"
	"github.com/listenupapp/library-server/internal/id"
	"github.com/listenupapp/library-server/internal/pubsub"
	"github.com/listenupapp/library-server/internal/store"
	"github.com/listenupapp/library-server/internal/validation"
)

// BookService manages books and announces new ones on the BOOK_ADDED topic.
type BookService struct {
	repo      store.Repository
	authors   *AuthorService
	search    *SearchService
	broker    *pubsub.Broker
	validator *validation.Validator
	logger    *slog.Logger
}

// NewBookService creates a new book service. search may be nil.
func NewBookService(
	repo store.Repository,
	authors *AuthorService,
	search *SearchService,
	broker *pubsub.Broker,
	logger *slog.Logger,
) *BookService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &BookService{
		repo:      repo,
		authors:   authors,
		search:    search,
		broker:    broker,
		validator: validation.New(),
		logger:    logger,
	}
}

// AddBookRequest contains the data for a new book.
type AddBookRequest struct {
	Title      string
	AuthorName string
	Genres     []string
	Published  int
}

type bookInput struct {
	Title string `label:"Title" validate:"min=5,max=512"`
}

// AddBook creates a book, creating its author first when needed.
//
// The caller must be authenticated. The author name is length checked only
// when the author does not exist yet. Every check runs before anything is
// written.
func (s *BookService) AddBook(ctx context.Context, req AddBookRequest) (*domain.Book, error) {
	user, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	authorName := store.NormalizeName(req.AuthorName)
	author, err := s.authors.FindByName(ctx, authorName)
	if err != nil {
		return nil, err
	}
	if author == nil {
		if err := s.authors.validateNew(authorName); err != nil {
			return nil, err
		}
	}
	if err := s.validator.Validate(bookInput{Title: req.Title}); err != nil {
		return nil, err
	}

	if author == nil {
		author, err = s.authors.ensure(ctx, authorName)
		if err != nil {
			return nil, internalError(ctx, s.logger, "create author for book", err)
		}
	}

	bookID, err := id.Generate(id.PrefixBook)
	if err != nil {
		return nil, internalError(ctx, s.logger, "generate book id", err)
	}

	book := &domain.Book{
		Title:     req.Title,
		Published: req.Published,
		AuthorID:  author.ID,
		Genres:    genre.Normalize(req.Genres),
	}
	book.ID = bookID
	book.InitTimestamps()

	if err := s.repo.CreateBook(ctx, book); err != nil {
		return nil, internalError(ctx, s.logger, "create book", err)
	}

	s.logger.Info("book added",
		"book_id", book.ID,
		"author_id", author.ID,
		"user_id", user.ID)

	if s.search != nil {
		if err := s.search.IndexBook(book, author.Name); err != nil {
			s.logger.Warn("failed to index book", "book_id", book.ID, "error", err)
		}
	}

	s.broker.Publish(pubsub.TopicBookAdded, book)

	return book, nil
}

// ListBooksRequest filters ListBooks. Nil fields do not filter.
type ListBooksRequest struct {
	AuthorName *string
	Genre      *string
}

// ListBooks returns the books matching every given filter, oldest first.
// An unknown author name or a blank genre matches nothing.
func (s *BookService) ListBooks(ctx context.Context, req ListBooksRequest) ([]*domain.Book, error) {
	var filter store.BookFilter

	if req.AuthorName != nil {
		author, err := s.authors.FindByName(ctx, *req.AuthorName)
		if err != nil {
			return nil, err
		}
		if author == nil {
			return []*domain.Book{}, nil
		}
		filter.AuthorID = author.ID
	}

	if req.Genre != nil {
		slug := genre.Slugify(*req.Genre)
		if slug == "" {
			return []*domain.Book{}, nil
		}
		filter.GenreSlug = slug
	}

	books, err := s.repo.ListBooks(ctx, filter)
	if err != nil {
		return nil, internalError(ctx, s.logger, "list books", err)
	}
	return books, nil
}

// GetBook returns the book with bookID.
func (s *BookService) GetBook(ctx context.Context, bookID string) (*domain.Book, error) {
	book, err := s.repo.GetBook(ctx, bookID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NotFoundf("book %s not found", bookID).WithCause(err)
		}
		return nil, internalError(ctx, s.logger, "get book", err)
	}
	return book, nil
}

// CountBooks returns the number of books.
func (s *BookService) CountBooks(ctx context.Context) (int, error) {
	n, err := s.repo.CountBooks(ctx)
	if err != nil {
		return 0, internalError(ctx, s.logger, "count books", err)
	}
	return n, nil
}

// BookAdded streams every book added after the call until ctx is cancelled.
func (s *BookService) BookAdded(ctx context.Context) (<-chan *domain.Book, error) {
	sub, err := s.broker.Subscribe(ctx, pubsub.TopicBookAdded)
	if err != nil {
		return nil, internalError(ctx, s.logger, "subscribe to new books", err)
	}

	out := make(chan *domain.Book)
	go func() {
		defer close(out)
		defer s.broker.Unsubscribe(sub)

		for ev := range sub.Events() {
			book, ok := ev.Payload.(*domain.Book)
			if !ok {
				continue
			}
			select {
			case out <- book:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

package graph

import (
	"context"

	"github.com/listenupapp/library-server/internal/auth"
	"github.com/listenupapp/library-server/internal/domain"
	apperrors "github.com/listenupapp/library-server/internal/errors"
	"github.com/listenupapp/library-server/internal/service"
)

// Resolver is the root resolver for queries, mutations and subscriptions.
type Resolver struct {
	auth    *service.AuthService
	authors *service.AuthorService
	books   *service.BookService
	search  *service.SearchService
}

// NewResolver creates a root resolver over the library services.
func NewResolver(
	authService *service.AuthService,
	authors *service.AuthorService,
	books *service.BookService,
	search *service.SearchService,
) *Resolver {
	return &Resolver{
		auth:    authService,
		authors: authors,
		books:   books,
		search:  search,
	}
}

// AuthorInput identifies an author by name.
type AuthorInput struct {
	Name string
}

// Queries

func (r *Resolver) Me(ctx context.Context) *UserResolver {
	user := auth.CurrentUser(ctx)
	if user == nil {
		return nil
	}
	return &UserResolver{user: user}
}

func (r *Resolver) BookCount(ctx context.Context) (int32, error) {
	n, err := r.books.CountBooks(ctx)
	return int32(n), err
}

func (r *Resolver) AuthorCount(ctx context.Context) (int32, error) {
	n, err := r.authors.CountAuthors(ctx)
	return int32(n), err
}

func (r *Resolver) AllBooks(ctx context.Context, args struct {
	Author *AuthorInput
	Genre  *string
}) ([]*BookResolver, error) {
	req := service.ListBooksRequest{Genre: args.Genre}
	if args.Author != nil {
		req.AuthorName = &args.Author.Name
	}

	books, err := r.books.ListBooks(ctx, req)
	if err != nil {
		return nil, err
	}
	return r.bookResolvers(books), nil
}

func (r *Resolver) AllAuthors(ctx context.Context) ([]*AuthorResolver, error) {
	authors, err := r.authors.ListAuthors(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*AuthorResolver, len(authors))
	for i, a := range authors {
		out[i] = &AuthorResolver{author: a, root: r}
	}
	return out, nil
}

func (r *Resolver) SearchBooks(ctx context.Context, args struct {
	Text  string
	Limit *int32
}) ([]*BookResolver, error) {
	var limit int
	if args.Limit != nil {
		if *args.Limit < 1 {
			return nil, apperrors.BadUserInput("limit must be at least 1")
		}
		limit = int(*args.Limit)
	}

	books, err := r.search.SearchBooks(ctx, args.Text, limit)
	if err != nil {
		return nil, err
	}
	return r.bookResolvers(books), nil
}

// Mutations

func (r *Resolver) AddAuthor(ctx context.Context, args struct{ Name string }) (*AuthorResolver, error) {
	author, err := r.authors.AddAuthor(ctx, args.Name)
	if err != nil {
		return nil, err
	}
	return &AuthorResolver{author: author, root: r}, nil
}

func (r *Resolver) CreateUser(ctx context.Context, args struct {
	Username      string
	FavoriteGenre string
}) (*UserResolver, error) {
	user, err := r.auth.CreateUser(ctx, service.CreateUserRequest{
		Username:      args.Username,
		FavoriteGenre: args.FavoriteGenre,
	})
	if err != nil {
		return nil, err
	}
	return &UserResolver{user: user}, nil
}

func (r *Resolver) Login(ctx context.Context, args struct {
	Username string
	Password string
}) (*TokenResolver, error) {
	token, err := r.auth.Login(ctx, args.Username, args.Password)
	if err != nil {
		return nil, err
	}
	return &TokenResolver{value: token}, nil
}

func (r *Resolver) AddBook(ctx context.Context, args struct {
	Title     string
	Author    AuthorInput
	Published int32
	Genres    []string
}) (*BookResolver, error) {
	book, err := r.books.AddBook(ctx, service.AddBookRequest{
		Title:      args.Title,
		AuthorName: args.Author.Name,
		Published:  int(args.Published),
		Genres:     args.Genres,
	})
	if err != nil {
		return nil, err
	}
	return &BookResolver{book: book, root: r}, nil
}

func (r *Resolver) EditAuthor(ctx context.Context, args struct {
	Name      string
	SetBornTo int32
}) (*AuthorResolver, error) {
	author, err := r.authors.EditAuthor(ctx, args.Name, int(args.SetBornTo))
	if err != nil || author == nil {
		return nil, err
	}
	return &AuthorResolver{author: author, root: r}, nil
}

// Subscriptions

func (r *Resolver) BookAdded(ctx context.Context) (<-chan *BookResolver, error) {
	books, err := r.books.BookAdded(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan *BookResolver)
	go func() {
		defer close(out)
		for book := range books {
			select {
			case out <- &BookResolver{book: book, root: r}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (r *Resolver) bookResolvers(books []*domain.Book) []*BookResolver {
	out := make([]*BookResolver, len(books))
	for i, b := range books {
		out[i] = &BookResolver{book: b, root: r}
	}
	return out
}

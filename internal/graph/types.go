package graph

import (
	"context"

	"github.com/graph-gophers/graphql-go"

	"github.com/listenupapp/library-server/internal/domain"
)

// BookResolver resolves the Book type.
type BookResolver struct {
	book *domain.Book
	root *Resolver
}

func (b *BookResolver) ID() graphql.ID   { return graphql.ID(b.book.ID) }
func (b *BookResolver) Title() string    { return b.book.Title }
func (b *BookResolver) Published() int32 { return int32(b.book.Published) }

func (b *BookResolver) Genres() []string {
	if b.book.Genres == nil {
		return []string{}
	}
	return b.book.Genres
}

func (b *BookResolver) Author(ctx context.Context) (*AuthorResolver, error) {
	author, err := b.root.authors.GetAuthor(ctx, b.book.AuthorID)
	if err != nil {
		return nil, err
	}
	return &AuthorResolver{author: author, root: b.root}, nil
}

// AuthorResolver resolves the Author type.
type AuthorResolver struct {
	author *domain.Author
	root   *Resolver
}

func (a *AuthorResolver) ID() graphql.ID { return graphql.ID(a.author.ID) }
func (a *AuthorResolver) Name() string   { return a.author.Name }

func (a *AuthorResolver) Born() *int32 {
	if a.author.Born == nil {
		return nil
	}
	born := int32(*a.author.Born)
	return &born
}

// BookCount is derived from the books that reference this author.
func (a *AuthorResolver) BookCount(ctx context.Context) (*int32, error) {
	n, err := a.root.authors.BookCount(ctx, a.author.ID)
	if err != nil {
		return nil, err
	}
	count := int32(n)
	return &count, nil
}

// UserResolver resolves the User type.
type UserResolver struct {
	user *domain.User
}

func (u *UserResolver) ID() graphql.ID        { return graphql.ID(u.user.ID) }
func (u *UserResolver) Username() string      { return u.user.Username }
func (u *UserResolver) FavoriteGenre() string { return u.user.FavoriteGenre }

// TokenResolver resolves the Token type.
type TokenResolver struct {
	value string
}

func (t *TokenResolver) Value() string { return t.value }

package search

import (
	"github.com/listenupapp/library-server/internal/domain"
	"github.com/listenupapp/library-server/internal/genre"
)

// BookDocument is the indexed form of a book. The author name is
// denormalized so that books can be found by who wrote them.
type BookDocument struct {
	ID         string
	Title      string
	Author     string
	Genres     []string
	GenreSlugs []string
	Published  int
	CreatedAt  int64
}

// NewBookDocument builds the document for book written by authorName.
func NewBookDocument(book *domain.Book, authorName string) *BookDocument {
	return &BookDocument{
		ID:         book.ID,
		Title:      book.Title,
		Author:     authorName,
		Genres:     book.Genres,
		GenreSlugs: genre.Slugs(book.Genres),
		Published:  book.Published,
		CreatedAt:  book.CreatedAt.UnixMilli(),
	}
}

// ToMap converts the document to the field names used by the mapping.
func (d *BookDocument) ToMap() map[string]any {
	return map[string]any{
		"title":       d.Title,
		"author":      d.Author,
		"genres":      d.Genres,
		"genre_slugs": d.GenreSlugs,
		"published":   float64(d.Published),
		"created_at":  float64(d.CreatedAt),
	}
}

// Package domain contains the core entities of the library catalogue.
package domain

// MinTitleLength is the shortest accepted book title.
const MinTitleLength = 5

// Book is a catalogued title. AuthorID references exactly one Author.
type Book struct {
	Record
	Title     string   `json:"title"`
	Published int      `json:"published"`
	AuthorID  string   `json:"author_id"`
	Genres    []string `json:"genres"`
}

// HasGenre reports whether the book is tagged with a genre whose slug equals slug.
func (b *Book) HasGenre(slug string, slugify func(string) string) bool {
	for _, g := range b.Genres {
		if slugify(g) == slug {
			return true
		}
	}
	return false
}

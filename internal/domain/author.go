package domain

// MinNewAuthorNameLength is the shortest name accepted when addBook has to
// create the author on the fly. Existing authors are addressable regardless.
const MinNewAuthorNameLength = 4

// Author is a person credited with one or more books.
// Book counts are derived from the book-by-author relationship and are not
// stored on the author.
type Author struct {
	Record
	Name string `json:"name"`
	Born *int   `json:"born,omitempty"`
}

// SetBorn records the author's birth year.
func (a *Author) SetBorn(year int) {
	a.Born = &year
	a.Touch()
}

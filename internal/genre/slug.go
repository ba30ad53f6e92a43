// Package genre normalizes the free-form genre tags attached to books.
package genre

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// isSeparator reports whether r splits the words of a tag.
func isSeparator(r rune) bool {
	if unicode.IsSpace(r) {
		return true
	}
	switch r {
	case '-', '_', '/', '\\', '.', ',', ':', ';', '|':
		return true
	}
	return false
}

// Slugify converts a genre tag to its comparison key. Letters of every
// script, digits and symbols survive; case is folded and runs of separators
// collapse to one hyphen.
// "Science Fiction" -> "science-fiction".
// "Sci-Fi/Fantasy" -> "sci-fi-fantasy".
// "C++" -> "c++", "C#" -> "c#".
// "Научная Фантастика" -> "научная-фантастика".
// A tag made only of separators keys on its folded text, so only a blank tag
// has an empty slug.
func Slugify(s string) string {
	// Casers hold state, so each call gets its own.
	s = cases.Fold().String(norm.NFKC.String(strings.TrimSpace(s)))

	var b strings.Builder
	b.Grow(len(s))
	pendingSep := false
	for _, r := range s {
		if isSeparator(r) {
			pendingSep = true
			continue
		}
		if pendingSep && b.Len() > 0 {
			b.WriteByte('-')
		}
		pendingSep = false
		b.WriteRune(r)
	}

	if b.Len() == 0 {
		return s
	}
	return b.String()
}

// Normalize trims the tags, drops blank ones, and removes tags whose slug was
// already seen. The first spelling of each genre wins and is kept as given.
func Normalize(genres []string) []string {
	out := make([]string, 0, len(genres))
	seen := make(map[string]struct{}, len(genres))
	for _, g := range genres {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		slug := Slugify(g)
		if _, ok := seen[slug]; ok {
			continue
		}
		seen[slug] = struct{}{}
		out = append(out, g)
	}
	return out
}

// Slugs returns the slug of every non-blank tag, in order.
func Slugs(genres []string) []string {
	out := make([]string, 0, len(genres))
	for _, g := range genres {
		if slug := Slugify(g); slug != "" {
			out = append(out, slug)
		}
	}
	return out
}

package store

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeName returns the index key for author names and usernames.
// Surrounding whitespace is dropped and the text is brought to NFC so that
// composed and decomposed spellings of the same name collide.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

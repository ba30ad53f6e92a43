package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// DefaultLimit and MaxLimit bound the number of hits returned.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Hit is a single search match.
type Hit struct {
	ID    string
	Score float64
}

// Search returns the ids of the books best matching text, highest score first.
// Blank text matches nothing.
func (s *BookIndex) Search(ctx context.Context, text string, limit int) ([]Hit, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return []Hit{}, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)

	s.mu.RLock()
	defer s.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(buildSearchQuery(text), limit, 0, false)
	req.SortBy([]string{"-_score", "created_at"})

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hits = append(hits, Hit{ID: h.ID, Score: h.Score})
	}
	return hits, nil
}

// buildSearchQuery matches titles first, then author names, then genres.
func buildSearchQuery(text string) query.Query {
	titleMatch := bleve.NewMatchQuery(text)
	titleMatch.SetField("title")
	titleMatch.SetBoost(3.0)

	authorMatch := bleve.NewMatchQuery(text)
	authorMatch.SetField("author")
	authorMatch.SetBoost(2.0)

	genreMatch := bleve.NewMatchQuery(text)
	genreMatch.SetField("genres")

	// Typo tolerance on titles.
	fuzzy := bleve.NewFuzzyQuery(strings.ToLower(text))
	fuzzy.SetFuzziness(1)
	fuzzy.SetField("title")
	fuzzy.SetBoost(0.8)

	queries := []query.Query{titleMatch, authorMatch, genreMatch, fuzzy}

	// Autocomplete on title prefixes.
	if len(text) >= 2 {
		prefix := bleve.NewPrefixQuery(strings.ToLower(text))
		prefix.SetField("title")
		prefix.SetBoost(0.5)
		queries = append(queries, prefix)
	}

	return bleve.NewDisjunctionQuery(queries...)
}

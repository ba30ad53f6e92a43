// Package main seeds a library database with a small sample catalogue.
//
// Books go through the same services the API uses, so validation, author
// creation and search indexing behave exactly as they do for addBook.
//
// Usage:
//
//	DATA_PATH=~/LibraryServer/data go run ./cmd/seed
//	DATA_PATH=~/LibraryServer/data go run ./cmd/seed --driver sqlite
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/listenupapp/library-server/internal/auth"
	"github.com/listenupapp/library-server/internal/config"
	"github.com/listenupapp/library-server/internal/domain"
	apperrors "github.com/listenupapp/library-server/internal/errors"
	"github.com/listenupapp/library-server/internal/pubsub"
	"github.com/listenupapp/library-server/internal/search"
	"github.com/listenupapp/library-server/internal/service"
	"github.com/listenupapp/library-server/internal/store"
	"github.com/listenupapp/library-server/internal/store/sqlite"
)

var driver = flag.String("driver", config.DriverBadger, "Store backend (badger, sqlite)")

type sampleAuthor struct {
	name string
	born int
}

var sampleAuthors = []sampleAuthor{
	{name: "Robert Martin", born: 1952},
	{name: "Martin Fowler", born: 1963},
	{name: "Fyodor Dostoevsky", born: 1821},
	{name: "Joshua Kerievsky"},
	{name: "Sandi Metz"},
}

var sampleBooks = []service.AddBookRequest{
	{Title: "Clean Code", Published: 2008, AuthorName: "Robert Martin", Genres: []string{"refactoring"}},
	{Title: "Agile software development", Published: 2002, AuthorName: "Robert Martin", Genres: []string{"agile", "patterns", "design"}},
	{Title: "Refactoring, edition 2", Published: 2018, AuthorName: "Martin Fowler", Genres: []string{"refactoring"}},
	{Title: "Refactoring to patterns", Published: 2008, AuthorName: "Joshua Kerievsky", Genres: []string{"refactoring", "patterns"}},
	{Title: "Practical Object-Oriented Design, An Agile Primer Using Ruby", Published: 2012, AuthorName: "Sandi Metz", Genres: []string{"refactoring", "design"}},
	{Title: "Crime and punishment", Published: 1866, AuthorName: "Fyodor Dostoevsky", Genres: []string{"classic", "crime"}},
	{Title: "Demons", Published: 1872, AuthorName: "Fyodor Dostoevsky", Genres: []string{"classic", "revolution"}},
}

func main() {
	flag.Parse()

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/LibraryServer/data")
	}

	repo, err := openStore(dataPath, *driver)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer repo.Close()

	index, err := search.NewBookIndex(nil)
	if err != nil {
		log.Fatalf("Failed to create search index: %v", err)
	}
	defer index.Close()

	broker := pubsub.NewBroker(nil, 0)
	defer broker.Shutdown(context.Background())

	authors := service.NewAuthorService(repo, nil)
	books := service.NewBookService(repo, authors, service.NewSearchService(index, repo, nil), broker, nil)

	// Mutations need a current user; the seeder acts as one.
	ctx := auth.WithCurrentUser(context.Background(), &domain.User{Username: "seed"})

	for _, a := range sampleAuthors {
		if _, err := authors.AddAuthor(ctx, a.name); err != nil && !errors.Is(err, apperrors.ErrBadUserInput) {
			log.Fatalf("Failed to add author %s: %v", a.name, err)
		}
		if a.born != 0 {
			if _, err := authors.EditAuthor(ctx, a.name, a.born); err != nil {
				log.Fatalf("Failed to set birth year for %s: %v", a.name, err)
			}
		}
	}

	existing, err := books.ListBooks(ctx, service.ListBooksRequest{})
	if err != nil {
		log.Fatalf("Failed to list books: %v", err)
	}
	seen := make(map[string]bool, len(existing))
	for _, b := range existing {
		seen[b.Title] = true
	}

	added := 0
	for _, req := range sampleBooks {
		if seen[req.Title] {
			continue
		}
		if _, err := books.AddBook(ctx, req); err != nil {
			log.Fatalf("Failed to add %q: %v", req.Title, err)
		}
		added++
	}

	fmt.Printf("Seeded %d books (%d already present) into %s\n", added, len(sampleBooks)-added, dataPath)
}

func openStore(dataPath, driver string) (store.Repository, error) {
	if err := os.MkdirAll(dataPath, 0o755); err != nil {
		return nil, fmt.Errorf("create data path: %w", err)
	}

	switch driver {
	case config.DriverSQLite:
		return sqlite.Open(filepath.Join(dataPath, "library.db"), nil)
	case config.DriverBadger:
		return store.New(filepath.Join(dataPath, "db"), nil)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

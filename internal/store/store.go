package store

import (
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/listenupapp/library-server/internal/domain"
	"github.com/listenupapp/library-server/internal/genre"
)

// Key prefixes for each entity kind.
const (
	authorPrefix = "author:"
	bookPrefix   = "book:"
	userPrefix   = "user:"
)

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	Authors *Entity[domain.Author]
	Books   *Entity[domain.Book]
	Users   *Entity[domain.User]
}

var _ Repository = (*Store)(nil)

// New creates a new Store instance backed by a Badger database at path.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger,
	}

	s.initAuthors()
	s.initBooks()
	s.initUsers()

	if logger != nil {
		logger.Info("Badger database opened successfully", "path", path)
	}

	return s, nil
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing database connection")
	}
	return s.db.Close()
}

// initAuthors indexes authors by normalized name. The index is unique, which
// is what makes concurrent creation of the same author fail for all but one writer.
func (s *Store) initAuthors() {
	s.Authors = NewEntity[domain.Author](s, authorPrefix).
		WithIndexTransform("name",
			func(a *domain.Author) []string {
				return []string{NormalizeName(a.Name)}
			},
			NormalizeName,
		)
}

// initBooks indexes books by author (for bookCount and the author filter)
// and by genre slug (for the genre filter).
func (s *Store) initBooks() {
	s.Books = NewEntity[domain.Book](s, bookPrefix).
		WithMultiIndex("author",
			func(b *domain.Book) []string {
				return []string{b.AuthorID}
			},
			nil,
		).
		WithMultiIndex("genre",
			func(b *domain.Book) []string {
				return genre.Slugs(b.Genres)
			},
			genre.Slugify,
		)
}

// initUsers indexes users by normalized username.
func (s *Store) initUsers() {
	s.Users = NewEntity[domain.User](s, userPrefix).
		WithIndexTransform("username",
			func(u *domain.User) []string {
				return []string{NormalizeName(u.Username)}
			},
			NormalizeName,
		)
}

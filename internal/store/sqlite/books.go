package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/listenupapp/library-server/internal/domain"
	"github.com/listenupapp/library-server/internal/genre"
	"github.com/listenupapp/library-server/internal/store"
)

// bookColumns must match the scan order in scanBook.
const bookColumns = `b.id, b.created_at, b.updated_at, b.title, b.published, b.author_id`

func scanBook(sc scanner) (*domain.Book, error) {
	var (
		b         domain.Book
		createdAt string
		updatedAt string
	)

	if err := sc.Scan(&b.ID, &createdAt, &updatedAt, &b.Title, &b.Published, &b.AuthorID); err != nil {
		return nil, err
	}

	var err error
	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if b.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	b.Genres = []string{}
	return &b, nil
}

// CreateBook inserts a book and its genre rows in one transaction.
// The referenced author must exist.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM authors WHERE id = ?`, book.AuthorID).Scan(&one)
	if err != nil {
		return fmt.Errorf("create book: author %s: %w", book.AuthorID, mapError(err))
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO books (id, created_at, updated_at, title, published, author_id) VALUES (?, ?, ?, ?, ?, ?)`,
		book.ID,
		formatTime(book.CreatedAt),
		formatTime(book.UpdatedAt),
		book.Title,
		book.Published,
		book.AuthorID,
	)
	if err != nil {
		return fmt.Errorf("create book: %w", mapError(err))
	}

	for i, g := range book.Genres {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO book_genres (book_id, position, name, slug) VALUES (?, ?, ?, ?)`,
			book.ID, i, g, genre.Slugify(g),
		)
		if err != nil {
			return fmt.Errorf("insert book genre: %w", mapError(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit book: %w", mapError(err))
	}
	return nil
}

// GetBook retrieves a book by id.
func (s *Store) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books b WHERE b.id = ?`, id)
	b, err := scanBook(row)
	if err != nil {
		return nil, mapError(err)
	}
	if err := s.loadGenres(ctx, []*domain.Book{b}); err != nil {
		return nil, err
	}
	return b, nil
}

// ListBooks returns the books matching filter ordered by creation time.
func (s *Store) ListBooks(ctx context.Context, filter store.BookFilter) ([]*domain.Book, error) {
	var (
		where []string
		args  []any
	)
	if filter.AuthorID != "" {
		where = append(where, "b.author_id = ?")
		args = append(args, filter.AuthorID)
	}
	if filter.GenreSlug != "" {
		where = append(where, "EXISTS (SELECT 1 FROM book_genres g WHERE g.book_id = b.id AND g.slug = ?)")
		args = append(args, filter.GenreSlug)
	}

	query := `SELECT ` + bookColumns + ` FROM books b`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY b.created_at, b.id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	books := []*domain.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.loadGenres(ctx, books); err != nil {
		return nil, err
	}
	return books, nil
}

// loadGenres fills in Genres for books with a single query.
func (s *Store) loadGenres(ctx context.Context, books []*domain.Book) error {
	if len(books) == 0 {
		return nil
	}

	byID := make(map[string]*domain.Book, len(books))
	args := make([]any, 0, len(books))
	for _, b := range books {
		byID[b.ID] = b
		args = append(args, b.ID)
	}

	placeholders := strings.Repeat("?,", len(books))
	placeholders = placeholders[:len(placeholders)-1]

	rows, err := s.db.QueryContext(ctx,
		`SELECT book_id, name FROM book_genres WHERE book_id IN (`+placeholders+`) ORDER BY book_id, position`,
		args...)
	if err != nil {
		return fmt.Errorf("load genres: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var bookID, name string
		if err := rows.Scan(&bookID, &name); err != nil {
			return fmt.Errorf("scan genre: %w", err)
		}
		if b, ok := byID[bookID]; ok {
			b.Genres = append(b.Genres, name)
		}
	}
	return rows.Err()
}

// CountBooks returns the number of stored books.
func (s *Store) CountBooks(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`).Scan(&n)
	return n, err
}

// CountBooksByAuthor returns the number of books referencing authorID.
func (s *Store) CountBooksByAuthor(ctx context.Context, authorID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books WHERE author_id = ?`, authorID).Scan(&n)
	if err != nil && err != sql.ErrNoRows {
		return 0, err
	}
	return n, nil
}

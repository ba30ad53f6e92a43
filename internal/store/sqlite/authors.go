package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/listenupapp/library-server/internal/domain"
	"github.com/listenupapp/library-server/internal/store"
)

// authorColumns must match the scan order in scanAuthor.
const authorColumns = `id, created_at, updated_at, name, born`

func scanAuthor(sc scanner) (*domain.Author, error) {
	var (
		a         domain.Author
		createdAt string
		updatedAt string
		born      sql.NullInt64
	)

	if err := sc.Scan(&a.ID, &createdAt, &updatedAt, &a.Name, &born); err != nil {
		return nil, err
	}

	var err error
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if born.Valid {
		year := int(born.Int64)
		a.Born = &year
	}
	return &a, nil
}

// CreateAuthor inserts a new author.
func (s *Store) CreateAuthor(ctx context.Context, author *domain.Author) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO authors (id, created_at, updated_at, name, name_key, born) VALUES (?, ?, ?, ?, ?, ?)`,
		author.ID,
		formatTime(author.CreatedAt),
		formatTime(author.UpdatedAt),
		author.Name,
		store.NormalizeName(author.Name),
		nullInt(author.Born),
	)
	if err != nil {
		return fmt.Errorf("create author: %w", mapError(err))
	}
	return nil
}

// GetAuthor retrieves an author by id.
func (s *Store) GetAuthor(ctx context.Context, id string) (*domain.Author, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+authorColumns+` FROM authors WHERE id = ?`, id)
	a, err := scanAuthor(row)
	if err != nil {
		return nil, mapError(err)
	}
	return a, nil
}

// GetAuthorByName retrieves an author by exact (normalized) name.
func (s *Store) GetAuthorByName(ctx context.Context, name string) (*domain.Author, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+authorColumns+` FROM authors WHERE name_key = ?`, store.NormalizeName(name))
	a, err := scanAuthor(row)
	if err != nil {
		return nil, mapError(err)
	}
	return a, nil
}

// UpdateAuthor replaces a stored author.
func (s *Store) UpdateAuthor(ctx context.Context, author *domain.Author) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE authors SET updated_at = ?, name = ?, name_key = ?, born = ? WHERE id = ?`,
		formatTime(author.UpdatedAt),
		author.Name,
		store.NormalizeName(author.Name),
		nullInt(author.Born),
		author.ID,
	)
	if err != nil {
		return fmt.Errorf("update author: %w", mapError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update author: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update author: %w", store.ErrNotFound)
	}
	return nil
}

// ListAuthors returns every author ordered by creation time.
func (s *Store) ListAuthors(ctx context.Context) ([]*domain.Author, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+authorColumns+` FROM authors ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list authors: %w", err)
	}
	defer rows.Close()

	authors := []*domain.Author{}
	for rows.Next() {
		a, err := scanAuthor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan author: %w", err)
		}
		authors = append(authors, a)
	}
	return authors, rows.Err()
}

// CountAuthors returns the number of stored authors.
func (s *Store) CountAuthors(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM authors`).Scan(&n)
	return n, err
}

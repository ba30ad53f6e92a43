package store

import (
	"context"
	"fmt"

	"github.com/listenupapp/library-server/internal/domain"
	"github.com/listenupapp/library-server/internal/id"
)

// CreateUser stores a new user account.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	if err := s.Users.Create(ctx, user.ID, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by id.
func (s *Store) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	if !id.HasPrefix(userID, id.PrefixUser) {
		return nil, ErrNotFound
	}
	return s.Users.Get(ctx, userID)
}

// GetUserByUsername retrieves a user by username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.Users.GetByIndex(ctx, "username", username)
}

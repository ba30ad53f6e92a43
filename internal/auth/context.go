package auth

import (
	"context"

	"github.com/listenupapp/library-server/internal/domain"
)

type contextKey string

const currentUserKey contextKey = "current_user"

// WithCurrentUser returns a context carrying user as the authenticated user.
func WithCurrentUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, currentUserKey, user)
}

// CurrentUser returns the authenticated user, or nil for anonymous requests.
func CurrentUser(ctx context.Context) *domain.User {
	user, _ := ctx.Value(currentUserKey).(*domain.User)
	return user
}

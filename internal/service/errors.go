package service

import (
	"context"
	"errors"
	"log/slog"

	apperrors "github.com/listenupapp/library-server/internal/errors"
)

// internalError logs err with its cause and returns the opaque error clients see.
func internalError(ctx context.Context, logger *slog.Logger, op string, err error) error {
	// Already coded errors pass through untouched.
	var coded *apperrors.Error
	if errors.As(err, &coded) {
		return coded
	}
	logger.ErrorContext(ctx, op+" failed", "error", err)
	return apperrors.Wrap(err, apperrors.CodeInternal, "internal server error")
}

package graph

import (
	"errors"
	"log/slog"
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/graph-gophers/graphql-go"
	gqlerrors "github.com/graph-gophers/graphql-go/errors"

	apperrors "github.com/listenupapp/library-server/internal/errors"
)

// ErrorResponse builds a response carrying err as its only error.
func ErrorResponse(err *apperrors.Error) *graphql.Response {
	return &graphql.Response{
		Errors: []*gqlerrors.QueryError{{
			Message:    err.Message,
			Extensions: err.Extensions(),
		}},
	}
}

// WriteError writes err as a GraphQL error response with the HTTP status of
// its code. Errors without a code are logged and reported as internal.
func WriteError(w http.ResponseWriter, err error, logger *slog.Logger) {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		logger.Error("request failed", "error", err)
		appErr = apperrors.Internal("internal server error").WithCause(err)
	}
	writeResponse(w, apperrors.CodeOf(appErr).HTTPStatus(), ErrorResponse(appErr), logger)
}

func writeResponse(w http.ResponseWriter, status int, resp *graphql.Response, logger *slog.Logger) {
	body, err := json.Marshal(resp)
	if err != nil {
		logger.Error("failed to encode GraphQL response", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"errors":[{"message":"internal server error","extensions":{"code":"INTERNAL_SERVER_ERROR"}}]}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		logger.Debug("failed to write GraphQL response", "error", err)
	}
}

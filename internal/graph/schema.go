// Package graph serves the library's GraphQL API: the schema, its resolvers,
// and the HTTP, WebSocket and SSE transports that execute it.
package graph

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/graph-gophers/graphql-go"
)

//go:embed schema.graphql
var schemaSDL string

// DefaultMaxDepth bounds query nesting when no depth is configured.
const DefaultMaxDepth = 10

// NewSchema parses the schema and binds it to r.
func NewSchema(r *Resolver, maxDepth int, logger *slog.Logger) (*graphql.Schema, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	schema, err := graphql.ParseSchema(schemaSDL, r,
		graphql.MaxDepth(maxDepth),
		graphql.Logger(panicLogger{logger: logger}),
	)
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	return schema, nil
}

// panicLogger reports resolver panics through slog.
type panicLogger struct {
	logger *slog.Logger
}

func (l panicLogger) LogPanic(ctx context.Context, value any) {
	l.logger.ErrorContext(ctx, "graphql resolver panic", "panic", fmt.Sprint(value))
}

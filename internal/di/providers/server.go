package providers

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/graph-gophers/graphql-go"
	"github.com/samber/do/v2"

	"github.com/listenupapp/library-server/internal/api"
	"github.com/listenupapp/library-server/internal/config"
	"github.com/listenupapp/library-server/internal/graph"
	"github.com/listenupapp/library-server/internal/logger"
	"github.com/listenupapp/library-server/internal/search"
	"github.com/listenupapp/library-server/internal/service"
	"github.com/listenupapp/library-server/internal/sse"
)

// ProvideSchema parses the GraphQL schema against the resolvers.
func ProvideSchema(i do.Injector) (*graphql.Schema, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	resolver := graph.NewResolver(
		do.MustInvoke[*service.AuthService](i),
		do.MustInvoke[*service.AuthorService](i),
		do.MustInvoke[*service.BookService](i),
		do.MustInvoke[*service.SearchService](i),
	)

	return graph.NewSchema(resolver, cfg.GraphQL.MaxDepth, log.Logger)
}

// SSEHandle wraps the SSE handler with shutdown capability.
type SSEHandle struct {
	*sse.Handler
}

// Shutdown implements do.Shutdownable.
func (h *SSEHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Handler.Shutdown(ctx)
}

// ProvideSSEHandler provides the GraphQL over SSE stream handler.
func ProvideSSEHandler(i do.Injector) (*SSEHandle, error) {
	schema := do.MustInvoke[*graphql.Schema](i)
	log := do.MustInvoke[*logger.Logger](i)

	return &SSEHandle{Handler: sse.NewHandler(schema, log.Logger)}, nil
}

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	listener net.Listener
	log      *logger.Logger
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// Start serves requests in the background.
func (h *HTTPServerHandle) Start() {
	go func() {
		h.log.Info("HTTP server starting", "addr", h.listener.Addr().String())
		if err := h.Serve(h.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.log.Error("HTTP server error", "error", err)
		}
	}()
}

// ProvideHTTPServer provides the HTTP server. The port is bound here so a
// busy port fails the bootstrap; requests are served once Start is called.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	schema := do.MustInvoke[*graphql.Schema](i)
	sseHandle := do.MustInvoke[*SSEHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	index := do.MustInvoke[*search.BookIndex](i)
	brokerHandle := do.MustInvoke[*BrokerHandle](i)
	authService := do.MustInvoke[*service.AuthService](i)

	graphHandler := graph.NewHandler(schema, sseHandle.Handler, authService, log.Logger)

	handler := api.NewServer(
		graphHandler,
		authService,
		storeHandle.Repository,
		index,
		brokerHandle.Broker,
		cfg.Server.CORSOrigins,
		log.Logger,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return nil, err
	}

	return &HTTPServerHandle{Server: srv, listener: ln, log: log}, nil
}

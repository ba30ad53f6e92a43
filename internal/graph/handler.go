package graph

import (
	"context"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/graph-gophers/graphql-go"

	"github.com/listenupapp/library-server/internal/domain"
	apperrors "github.com/listenupapp/library-server/internal/errors"
	"github.com/listenupapp/library-server/internal/sse"
)

// Authenticator resolves an Authorization header value to the current user.
// It returns (nil, nil) for anonymous callers.
type Authenticator interface {
	Authenticate(ctx context.Context, header string) (*domain.User, error)
}

// Handler serves GraphQL over HTTP. WebSocket upgrades are handed to the
// graphql-transport-ws server and requests accepting text/event-stream are
// streamed as Server-Sent Events.
type Handler struct {
	schema *graphql.Schema
	ws     http.Handler
	sse    *sse.Handler
	logger *slog.Logger
}

// NewHandler creates the GraphQL HTTP handler. Event-stream requests are
// served by streams.
func NewHandler(schema *graphql.Schema, streams *sse.Handler, authn Authenticator, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		schema: schema,
		ws:     newWSServer(schema, authn, logger),
		sse:    streams,
		logger: logger,
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if isWebSocketUpgrade(r) {
		h.ws.ServeHTTP(w, r)
		return
	}

	req, err := decodeRequest(w, r)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errMethodNotAllowed) {
			status = http.StatusMethodNotAllowed
			w.Header().Set("Allow", "GET, POST")
		}
		writeResponse(w, status, ErrorResponse(apperrors.BadUserInput(err.Error())), h.logger)
		return
	}

	if acceptsEventStream(r) {
		h.sse.Serve(w, r, sse.Params{
			Query:         req.Query,
			OperationName: req.OperationName,
			Variables:     req.Variables,
		})
		return
	}

	if r.Method == http.MethodGet && isMutation(req.Query, req.OperationName) {
		w.Header().Set("Allow", "POST")
		writeResponse(w, http.StatusMethodNotAllowed,
			ErrorResponse(apperrors.BadUserInput("mutations must be sent with POST")), h.logger)
		return
	}

	resp := h.schema.Exec(r.Context(), req.Query, req.OperationName, req.Variables)
	writeResponse(w, http.StatusOK, resp, h.logger)
}

func isWebSocketUpgrade(r *http.Request) bool {
	return r.Method == http.MethodGet &&
		strings.EqualFold(r.Header.Get("Upgrade"), "websocket") &&
		headerContainsToken(r.Header.Get("Connection"), "upgrade")
}

func acceptsEventStream(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && mediaType == "text/event-stream" {
			return true
		}
	}
	return false
}

func headerContainsToken(header, token string) bool {
	for _, part := range strings.Split(header, ",") {
		if strings.EqualFold(strings.TrimSpace(part), token) {
			return true
		}
	}
	return false
}

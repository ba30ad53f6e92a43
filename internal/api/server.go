// Package api provides the HTTP server that fronts the library's GraphQL API.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/listenupapp/library-server/internal/http/response"
	"github.com/listenupapp/library-server/internal/pubsub"
	"github.com/listenupapp/library-server/internal/search"
	"github.com/listenupapp/library-server/internal/service"
	"github.com/listenupapp/library-server/internal/store"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	graph       http.Handler
	authService *service.AuthService
	repo        store.Repository
	index       *search.BookIndex
	broker      *pubsub.Broker
	router      *chi.Mux
	logger      *slog.Logger
	corsOrigins []string
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(
	graphHandler http.Handler,
	authService *service.AuthService,
	repo store.Repository,
	index *search.BookIndex,
	broker *pubsub.Broker,
	corsOrigins []string,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		graph:       graphHandler,
		authService: authService,
		repo:        repo,
		index:       index,
		broker:      broker,
		router:      chi.NewRouter(),
		logger:      logger,
		corsOrigins: corsOrigins,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5, "application/json"))

	origins := s.corsOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           int((12 * time.Hour).Seconds()),
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Health check.
	s.router.Get("/health", s.handleHealthCheck)

	// GraphQL, also served at the root like the public playground URL.
	s.router.Group(func(r chi.Router) {
		r.Use(s.authenticate)
		r.Handle("/graphql", s.graph)
		r.Handle("/", s.graph)
	})

	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "route not found", s.logger)
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.MethodNotAllowed(w, "method not allowed", s.logger)
	})
}

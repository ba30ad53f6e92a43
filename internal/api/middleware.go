package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/listenupapp/library-server/internal/auth"
	"github.com/listenupapp/library-server/internal/graph"
)

// authenticate attaches the current user named by the Authorization header.
// Requests without a bearer token continue anonymously; a token that fails
// verification ends the request with a 401 GraphQL error.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := s.authService.Authenticate(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			graph.WriteError(w, err, s.logger)
			return
		}

		if user != nil {
			r = r.WithContext(auth.WithCurrentUser(r.Context(), user))
		}

		next.ServeHTTP(w, r)
	})
}

// requestLogger logs one line per request once it completes.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		defer func() {
			level := slog.LevelInfo
			if ww.Status() >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			s.logger.LogAttrs(r.Context(), level, "request completed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
				slog.String("remote_addr", r.RemoteAddr))
		}()

		next.ServeHTTP(ww, r)
	})
}

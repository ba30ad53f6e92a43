package sse

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// DefaultHeartbeatInterval is how often an idle stream sends a keepalive comment.
const DefaultHeartbeatInterval = 30 * time.Second

// Subscriber starts a GraphQL operation and returns its results.
// *graphql.Schema satisfies it.
type Subscriber interface {
	Subscribe(ctx context.Context, query, operationName string, variables map[string]any) (<-chan any, error)
}

// Handler streams GraphQL operations over SSE.
type Handler struct {
	subscriber        Subscriber
	logger            *slog.Logger
	done              chan struct{}
	wg                sync.WaitGroup
	heartbeatInterval time.Duration
	closeOnce         sync.Once
}

// NewHandler creates a new SSE Handler.
func NewHandler(subscriber Subscriber, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		subscriber:        subscriber,
		logger:            logger,
		done:              make(chan struct{}),
		heartbeatInterval: DefaultHeartbeatInterval,
	}
}

// SetHeartbeatInterval changes the keepalive interval.
func (h *Handler) SetHeartbeatInterval(d time.Duration) {
	h.heartbeatInterval = d
}

// Serve runs p and streams its results until the operation ends, the client
// disconnects or the handler shuts down.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request, p Params) {
	// Check if request context is already canceled (early client disconnect).
	if r.Context().Err() != nil {
		return
	}

	select {
	case <-h.done:
		http.Error(w, "Server shutting down", http.StatusServiceUnavailable)
		return
	default:
	}

	h.wg.Add(1)
	defer h.wg.Done()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	results, err := h.subscriber.Subscribe(ctx, p.Query, p.OperationName, p.Variables)
	if err != nil {
		h.logger.Warn("failed to start SSE operation", slog.String("error", err.Error()))
		http.Error(w, "Failed to start operation", http.StatusBadRequest)
		return
	}

	// Set SSE headers.
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering
	w.WriteHeader(http.StatusOK)

	// Use ResponseController for modern HTTP handling (Go 1.20+).
	rc := http.NewResponseController(w)

	// Flush headers immediately.
	if err := rc.Flush(); err != nil {
		h.logger.Error("failed to flush headers", slog.String("error", err.Error()))
		return
	}

	streamLogger := h.logger.With(slog.String("stream_id", uuid.NewString()))
	streamLogger.Debug("SSE stream opened", slog.String("operation", p.OperationName))

	heartbeatTicker := time.NewTicker(h.heartbeatInterval)
	defer heartbeatTicker.Stop()

	for {
		select {
		case res, ok := <-results:
			if !ok {
				if err := h.sendEvent(w, rc, EventComplete, nil); err != nil {
					streamLogger.Debug("client disconnected before complete")
				}
				streamLogger.Debug("SSE stream completed")
				return
			}
			if err := h.sendEvent(w, rc, EventNext, res); err != nil {
				// Client disconnect is normal, not an error condition.
				streamLogger.Info("client disconnected during send")
				return
			}

		case <-heartbeatTicker.C:
			if err := h.sendComment(w, rc); err != nil {
				streamLogger.Info("client disconnected during heartbeat")
				return
			}

		case <-h.done:
			_ = h.sendEvent(w, rc, EventComplete, nil)
			streamLogger.Info("SSE stream closed by shutdown")
			return

		case <-ctx.Done():
			streamLogger.Debug("client context canceled")
			return
		}
	}
}

// Shutdown ends every open stream with a complete event and waits for the
// streams to finish or ctx to expire.
func (h *Handler) Shutdown(ctx context.Context) error {
	h.closeOnce.Do(func() { close(h.done) })

	finished := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// sendEvent writes an SSE event. A nil payload sends empty data.
func (h *Handler) sendEvent(w http.ResponseWriter, rc *http.ResponseController, eventType EventType, data any) error {
	payload := []byte{}
	if data != nil {
		var err error
		payload, err = json.Marshal(data)
		if err != nil {
			return fmt.Errorf("marshal event data: %w", err)
		}
	}

	// event: <type>
	// data: <json>
	// (blank line)
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, payload); err != nil {
		return err
	}

	return h.flush(rc)
}

// sendComment writes a keepalive comment line.
func (h *Handler) sendComment(w http.ResponseWriter, rc *http.ResponseController) error {
	if _, err := fmt.Fprint(w, ":\n\n"); err != nil {
		return err
	}
	return h.flush(rc)
}

func (h *Handler) flush(rc *http.ResponseController) error {
	// Flush immediately so client receives the event.
	if err := rc.Flush(); err != nil {
		return err
	}

	// Reset after each successful write.
	if err := rc.SetWriteDeadline(time.Now().Add(2 * h.heartbeatInterval)); err != nil {
		// SetWriteDeadline may not be supported by all ResponseWriters.
		h.logger.Debug("failed to set write deadline", slog.String("error", err.Error()))
	}

	return nil
}

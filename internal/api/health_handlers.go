package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/listenupapp/library-server/internal/http/response"
	"github.com/listenupapp/library-server/internal/pubsub"
)

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}

// HealthResponse contains health check data.
type HealthResponse struct {
	Status     string                     `json:"status"`
	Components map[string]ComponentHealth `json:"components"`
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	components := map[string]ComponentHealth{
		"database": s.checkDatabase(r.Context()),
		"search":   s.checkSearchIndex(),
		"pubsub":   s.checkBroker(),
	}

	overall := "healthy"
	for _, c := range components {
		switch c.Status {
		case "unhealthy":
			overall = "unhealthy"
		case "degraded":
			if overall == "healthy" {
				overall = "degraded"
			}
		}
	}

	status := http.StatusOK
	if overall == "unhealthy" {
		status = http.StatusServiceUnavailable
	}

	response.JSON(w, status, HealthResponse{
		Status:     overall,
		Components: components,
	}, s.logger)
}

// checkDatabase verifies the store answers a cheap read.
func (s *Server) checkDatabase(ctx context.Context) ComponentHealth {
	// Handle nil store (e.g., in tests)
	if s.repo == nil {
		return ComponentHealth{Status: "degraded", Message: "database not configured"}
	}

	start := time.Now()
	_, err := s.repo.CountAuthors(ctx)
	latency := time.Since(start)

	if err != nil {
		s.logger.Warn("health check database read failed", "error", err)
		return ComponentHealth{
			Status:  "unhealthy",
			Latency: latency.String(),
			Message: "database read failed",
		}
	}

	return ComponentHealth{Status: "healthy", Latency: latency.String()}
}

// checkSearchIndex verifies the Bleve index is accessible.
func (s *Server) checkSearchIndex() ComponentHealth {
	if s.index == nil {
		return ComponentHealth{Status: "degraded", Message: "search index not configured"}
	}

	start := time.Now()
	docCount, err := s.index.DocumentCount()
	latency := time.Since(start)

	if err != nil {
		return ComponentHealth{
			Status:  "unhealthy",
			Latency: latency.String(),
			Message: "search index unreachable",
		}
	}

	return ComponentHealth{
		Status:  "healthy",
		Latency: latency.String(),
		Message: strconv.FormatUint(docCount, 10) + " books indexed",
	}
}

// checkBroker reports how many clients listen for new books.
func (s *Server) checkBroker() ComponentHealth {
	if s.broker == nil {
		return ComponentHealth{Status: "degraded", Message: "pubsub broker not configured"}
	}

	count := s.broker.SubscriberCount(pubsub.TopicBookAdded)
	switch count {
	case 1:
		return ComponentHealth{Status: "healthy", Message: "1 subscriber"}
	default:
		return ComponentHealth{Status: "healthy", Message: strconv.Itoa(count) + " subscribers"}
	}
}

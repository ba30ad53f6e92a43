package providers

import "time"

const (
	// shutdownTimeout is the maximum time to wait for graceful shutdown of services.
	shutdownTimeout = 30 * time.Second

	// brokerBufferSize is the per-subscriber event buffer.
	brokerBufferSize = 64
)

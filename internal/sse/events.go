// Package sse streams GraphQL subscription results as Server-Sent Events,
// following the "distinct connections" mode of the GraphQL over SSE protocol:
// one operation per request, each result sent as a next event and the end of
// the stream marked by a complete event.
package sse

// EventType is the SSE event name.
type EventType string

const (
	// EventNext carries one execution result.
	EventNext EventType = "next"
	// EventComplete ends the stream. Its data is empty.
	EventComplete EventType = "complete"
)

// Params is the GraphQL operation to stream.
type Params struct {
	Variables     map[string]any
	Query         string
	OperationName string
}

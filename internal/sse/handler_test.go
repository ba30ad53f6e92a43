package sse

import (
	"bufio"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubscriber struct {
	results chan any
	err     error
	gotCtx  chan context.Context
}

func (f *fakeSubscriber) Subscribe(ctx context.Context, _, _ string, _ map[string]any) (<-chan any, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.gotCtx != nil {
		f.gotCtx <- ctx
	}
	return f.results, nil
}

func readEvent(t *testing.T, r *bufio.Reader) (event, data string) {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && event != "":
			return event, data
		}
	}
}

func startStream(t *testing.T, h *Handler) (*http.Response, *bufio.Reader) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Serve(w, r, Params{Query: "subscription { bookAdded { id } }"})
	}))
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp, bufio.NewReader(resp.Body)
}

func TestHandler_StreamsResultsThenCompletes(t *testing.T) {
	sub := &fakeSubscriber{results: make(chan any, 2)}
	h := NewHandler(sub, nil)

	sub.results <- map[string]any{"data": map[string]any{"bookAdded": map[string]string{"id": "book-1"}}}
	close(sub.results)

	resp, r := startStream(t, h)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))

	event, data := readEvent(t, r)
	assert.Equal(t, "next", event)
	assert.JSONEq(t, `{"data":{"bookAdded":{"id":"book-1"}}}`, data)

	event, data = readEvent(t, r)
	assert.Equal(t, "complete", event)
	assert.Empty(t, data)
}

func TestHandler_Heartbeat(t *testing.T) {
	sub := &fakeSubscriber{results: make(chan any)}
	h := NewHandler(sub, nil)
	h.SetHeartbeatInterval(20 * time.Millisecond)
	t.Cleanup(func() { _ = h.Shutdown(context.Background()) })

	_, r := startStream(t, h)

	line, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ":\n", line)
}

func TestHandler_SubscribeError(t *testing.T) {
	h := NewHandler(&fakeSubscriber{err: errors.New("no subscriptions")}, nil)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/graphql", nil)
	h.Serve(w, r, Params{Query: "{"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_ShutdownCompletesOpenStreams(t *testing.T) {
	sub := &fakeSubscriber{results: make(chan any), gotCtx: make(chan context.Context, 1)}
	h := NewHandler(sub, nil)

	_, r := startStream(t, h)
	<-sub.gotCtx

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, h.Shutdown(ctx))

	event, _ := readEvent(t, r)
	assert.Equal(t, "complete", event)

	// New streams are refused after shutdown.
	w := httptest.NewRecorder()
	h.Serve(w, httptest.NewRequest(http.MethodGet, "/graphql", nil), Params{Query: "{ bookCount }"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHandler_ClientDisconnectCancelsOperation(t *testing.T) {
	sub := &fakeSubscriber{results: make(chan any), gotCtx: make(chan context.Context, 1)}
	h := NewHandler(sub, nil)

	resp, _ := startStream(t, h)
	opCtx := <-sub.gotCtx

	require.NoError(t, resp.Body.Close())

	select {
	case <-opCtx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("operation context not cancelled after disconnect")
	}
}

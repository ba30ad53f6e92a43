package graph_test

import (
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/listenupapp/library-server/internal/graph"
	"github.com/listenupapp/library-server/internal/pubsub"
)

type wsMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func dialWS(t *testing.T, env *testEnv, protocols ...string) (*websocket.Conn, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/graphql"
	cfg, err := websocket.NewConfig(url, env.server.URL)
	require.NoError(t, err)
	cfg.Protocol = protocols
	return websocket.DialConfig(cfg)
}

func sendWS(t *testing.T, ws *websocket.Conn, msg any) {
	t.Helper()
	require.NoError(t, websocket.JSON.Send(ws, msg))
}

func receiveWS(t *testing.T, ws *websocket.Conn) wsMessage {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg wsMessage
	require.NoError(t, websocket.JSON.Receive(ws, &msg))
	return msg
}

func connectWS(t *testing.T, env *testEnv, token string) *websocket.Conn {
	t.Helper()
	ws, err := dialWS(t, env, graph.Subprotocol)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })

	init := map[string]any{"type": "connection_init"}
	if token != "" {
		init["payload"] = map[string]string{"Authorization": "bearer " + token}
	}
	sendWS(t, ws, init)
	require.Equal(t, "connection_ack", receiveWS(t, ws).Type)
	return ws
}

func TestWebSocket_RejectsOtherSubprotocols(t *testing.T) {
	env := setupTest(t)

	_, err := dialWS(t, env, "graphql-ws")
	assert.Error(t, err)
}

func TestWebSocket_PingPong(t *testing.T) {
	env := setupTest(t)
	ws := connectWS(t, env, "")

	sendWS(t, ws, map[string]any{"type": "ping"})
	assert.Equal(t, "pong", receiveWS(t, ws).Type)
}

func TestWebSocket_QueryCompletes(t *testing.T) {
	env := setupTest(t)
	ws := connectWS(t, env, "")

	sendWS(t, ws, map[string]any{
		"id":      "1",
		"type":    "subscribe",
		"payload": map[string]any{"query": "{ bookCount }"},
	})

	next := receiveWS(t, ws)
	assert.Equal(t, "next", next.Type)
	assert.Equal(t, "1", next.ID)
	assert.JSONEq(t, `{"data":{"bookCount":0}}`, string(next.Payload))

	done := receiveWS(t, ws)
	assert.Equal(t, "complete", done.Type)
	assert.Equal(t, "1", done.ID)
}

func TestWebSocket_BookAdded(t *testing.T) {
	env := setupTest(t)
	_, token := env.login(t)

	listener := connectWS(t, env, "")
	sendWS(t, listener, map[string]any{
		"id":      "sub",
		"type":    "subscribe",
		"payload": map[string]any{"query": "subscription { bookAdded { title author { name } } }"},
	})

	require.Eventually(t, func() bool {
		return env.broker.SubscriberCount(pubsub.TopicBookAdded) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// The writer authenticates through the connection_init payload.
	writer := connectWS(t, env, token)
	sendWS(t, writer, map[string]any{
		"id":   "add",
		"type": "subscribe",
		"payload": map[string]any{
			"query": `mutation { addBook(title: "Clean Code", author: {name: "Robert Martin"}, published: 2008, genres: ["refactoring"]) { id } }`,
		},
	})
	added := receiveWS(t, writer)
	require.Equal(t, "next", added.Type)
	assert.NotContains(t, string(added.Payload), "errors")

	event := receiveWS(t, listener)
	assert.Equal(t, "next", event.Type)
	assert.Equal(t, "sub", event.ID)
	assert.JSONEq(t, `{"data":{"bookAdded":{"title":"Clean Code","author":{"name":"Robert Martin"}}}}`, string(event.Payload))

	// Completing from the client releases the listener.
	sendWS(t, listener, map[string]any{"id": "sub", "type": "complete"})
	require.Eventually(t, func() bool {
		return env.broker.SubscriberCount(pubsub.TopicBookAdded) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWebSocket_UnauthenticatedMutationErrors(t *testing.T) {
	env := setupTest(t)
	ws := connectWS(t, env, "")

	sendWS(t, ws, map[string]any{
		"id":   "add",
		"type": "subscribe",
		"payload": map[string]any{
			"query": `mutation { addBook(title: "Clean Code", author: {name: "Robert Martin"}, published: 2008, genres: []) { id } }`,
		},
	})

	msg := receiveWS(t, ws)
	require.Equal(t, "next", msg.Type)
	assert.Contains(t, string(msg.Payload), "UNAUTHENTICATED")
}

func TestWebSocket_DisconnectReleasesSubscription(t *testing.T) {
	env := setupTest(t)
	ws := connectWS(t, env, "")

	sendWS(t, ws, map[string]any{
		"id":      "sub",
		"type":    "subscribe",
		"payload": map[string]any{"query": "subscription { bookAdded { id } }"},
	})
	require.Eventually(t, func() bool {
		return env.broker.SubscriberCount(pubsub.TopicBookAdded) == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, ws.Close())

	require.Eventually(t, func() bool {
		return env.broker.SubscriberCount(pubsub.TopicBookAdded) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWebSocket_InvalidTokenClosesConnection(t *testing.T) {
	env := setupTest(t)

	ws, err := dialWS(t, env, graph.Subprotocol)
	require.NoError(t, err)
	defer ws.Close()

	sendWS(t, ws, map[string]any{
		"type":    "connection_init",
		"payload": map[string]string{"Authorization": "bearer not-a-token"},
	})

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg wsMessage
	assert.Error(t, websocket.JSON.Receive(ws, &msg))
}

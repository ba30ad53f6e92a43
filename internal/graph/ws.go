package graph

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/graph-gophers/graphql-go"
	"golang.org/x/net/websocket"

	"github.com/listenupapp/library-server/internal/auth"
	apperrors "github.com/listenupapp/library-server/internal/errors"
)

// Subprotocol is the GraphQL over WebSocket protocol spoken by wsServer.
const Subprotocol = "graphql-transport-ws"

// Message types of the graphql-transport-ws protocol.
const (
	msgConnectionInit = "connection_init"
	msgConnectionAck  = "connection_ack"
	msgPing           = "ping"
	msgPong           = "pong"
	msgSubscribe      = "subscribe"
	msgNext           = "next"
	msgError          = "error"
	msgComplete       = "complete"
)

// Close codes of the graphql-transport-ws protocol.
const (
	closeBadRequest    = 4400
	closeUnauthorized  = 4401
	closeForbidden     = 4403
	closeInitTimeout   = 4408
	closeDuplicateID   = 4409
	closeTooManyInits  = 4429
	closeInternalError = 4500
)

// connectionInitTimeout is how long a client may wait before connection_init.
const connectionInitTimeout = 3 * time.Second

type wsMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// wsCodec frames protocol messages as JSON text frames.
var wsCodec = websocket.Codec{
	Marshal: func(v any) ([]byte, byte, error) {
		data, err := json.Marshal(v)
		return data, websocket.TextFrame, err
	},
	Unmarshal: func(data []byte, _ byte, v any) error {
		return json.Unmarshal(data, v)
	},
}

type wsServer struct {
	schema *graphql.Schema
	authn  Authenticator
	logger *slog.Logger
}

func newWSServer(schema *graphql.Schema, authn Authenticator, logger *slog.Logger) http.Handler {
	s := &wsServer{schema: schema, authn: authn, logger: logger}
	return websocket.Server{
		Handshake: s.handshake,
		Handler:   s.serve,
	}
}

// handshake accepts only clients offering the graphql-transport-ws subprotocol.
func (s *wsServer) handshake(cfg *websocket.Config, _ *http.Request) error {
	for _, p := range cfg.Protocol {
		if p == Subprotocol {
			cfg.Protocol = []string{Subprotocol}
			return nil
		}
	}
	return errors.New("unsupported websocket subprotocol")
}

// wsConn is one graphql-transport-ws connection.
type wsConn struct {
	ws     *websocket.Conn
	server *wsServer
	logger *slog.Logger

	sendMu sync.Mutex

	mu   sync.Mutex
	subs map[string]context.CancelFunc
	wg   sync.WaitGroup
}

func (s *wsServer) serve(ws *websocket.Conn) {
	ctx, cancel := context.WithCancel(ws.Request().Context())
	defer cancel()

	c := &wsConn{
		ws:     ws,
		server: s,
		logger: s.logger.With(slog.String("connection_id", uuid.NewString())),
		subs:   make(map[string]context.CancelFunc),
	}
	c.logger.Debug("websocket connected", "remote_addr", ws.Request().RemoteAddr)

	defer func() {
		cancel()
		c.wg.Wait()
		_ = ws.Close()
		c.logger.Debug("websocket disconnected")
	}()

	ctx, ok := c.init(ctx)
	if !ok {
		return
	}

	for {
		var msg wsMessage
		if err := wsCodec.Receive(ws, &msg); err != nil {
			if !errors.Is(err, io.EOF) {
				c.logger.Debug("websocket read failed", "error", err)
			}
			return
		}

		switch msg.Type {
		case msgPing:
			c.send(wsMessage{Type: msgPong})
		case msgPong:
		case msgConnectionInit:
			c.close(closeTooManyInits)
			return
		case msgSubscribe:
			if !c.subscribe(ctx, msg) {
				return
			}
		case msgComplete:
			c.unsubscribe(msg.ID)
		default:
			c.close(closeBadRequest)
			return
		}
	}
}

// init waits for connection_init, authenticates its payload and acknowledges.
// The returned context carries the current user, if any.
func (c *wsConn) init(ctx context.Context) (context.Context, bool) {
	_ = c.ws.SetReadDeadline(time.Now().Add(connectionInitTimeout))

	var msg wsMessage
	if err := wsCodec.Receive(c.ws, &msg); err != nil {
		c.close(closeInitTimeout)
		return ctx, false
	}
	_ = c.ws.SetReadDeadline(time.Time{})

	if msg.Type != msgConnectionInit {
		c.close(closeUnauthorized)
		return ctx, false
	}

	var payload struct {
		Authorization      string `json:"Authorization"`
		AuthorizationLower string `json:"authorization"`
	}
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			c.close(closeBadRequest)
			return ctx, false
		}
	}

	header := payload.Authorization
	if header == "" {
		header = payload.AuthorizationLower
	}
	if header == "" {
		header = c.ws.Request().Header.Get("Authorization")
	}

	if header != "" && c.server.authn != nil {
		user, err := c.server.authn.Authenticate(ctx, header)
		if err != nil {
			c.logger.Info("websocket authentication failed", "error", err)
			c.close(closeForbidden)
			return ctx, false
		}
		if user != nil {
			ctx = auth.WithCurrentUser(ctx, user)
			c.logger = c.logger.With(slog.String("user_id", user.ID))
		}
	}

	c.send(wsMessage{Type: msgConnectionAck})
	return ctx, true
}

// subscribe starts the operation in msg. It reports false when the
// connection had to be closed.
func (c *wsConn) subscribe(ctx context.Context, msg wsMessage) bool {
	if msg.ID == "" {
		c.close(closeBadRequest)
		return false
	}

	var req Request
	if err := json.Unmarshal(msg.Payload, &req); err != nil || req.Query == "" {
		c.close(closeBadRequest)
		return false
	}

	c.mu.Lock()
	if _, exists := c.subs[msg.ID]; exists {
		c.mu.Unlock()
		c.close(closeDuplicateID)
		return false
	}
	subCtx, cancel := context.WithCancel(ctx)
	c.subs[msg.ID] = cancel
	c.mu.Unlock()

	results, err := c.server.schema.Subscribe(subCtx, req.Query, req.OperationName, req.Variables)
	if err != nil {
		cancel()
		c.forget(msg.ID)
		c.sendErrors(msg.ID, ErrorResponse(apperrors.BadUserInput(err.Error())))
		return true
	}

	c.logger.Debug("operation started", "id", msg.ID, "operation", req.OperationName)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()
		c.stream(subCtx, msg.ID, results)
	}()
	return true
}

// stream forwards results until the operation ends or is cancelled.
func (c *wsConn) stream(ctx context.Context, id string, results <-chan any) {
	for {
		select {
		case <-ctx.Done():
			c.forget(id)
			return
		case res, ok := <-results:
			if !ok {
				if c.forget(id) {
					c.send(wsMessage{ID: id, Type: msgComplete})
				}
				return
			}

			resp, isResp := res.(*graphql.Response)
			if !isResp {
				continue
			}

			// A response with errors and no data is a request error: the
			// operation is over and no complete follows.
			if len(resp.Errors) > 0 && isNullData(resp.Data) {
				if c.forget(id) {
					c.sendErrors(id, resp)
				}
				return
			}

			payload, err := json.Marshal(resp)
			if err != nil {
				c.logger.Error("failed to encode subscription result", "id", id, "error", err)
				c.close(closeInternalError)
				return
			}
			c.send(wsMessage{ID: id, Type: msgNext, Payload: payload})
		}
	}
}

func (c *wsConn) unsubscribe(id string) {
	c.mu.Lock()
	cancel, ok := c.subs[id]
	delete(c.subs, id)
	c.mu.Unlock()

	if ok {
		cancel()
		c.logger.Debug("operation completed by client", "id", id)
	}
}

// forget removes id and reports whether it was still registered.
func (c *wsConn) forget(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.subs[id]; !ok {
		return false
	}
	delete(c.subs, id)
	return true
}

func (c *wsConn) sendErrors(id string, resp *graphql.Response) {
	payload, err := json.Marshal(resp.Errors)
	if err != nil {
		c.logger.Error("failed to encode operation errors", "id", id, "error", err)
		return
	}
	c.send(wsMessage{ID: id, Type: msgError, Payload: payload})
}

func (c *wsConn) send(msg wsMessage) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if err := wsCodec.Send(c.ws, msg); err != nil {
		c.logger.Debug("websocket write failed", "type", msg.Type, "error", err)
	}
}

func (c *wsConn) close(code int) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	_ = c.ws.WriteClose(code)
	c.logger.Debug("websocket closed by server", "code", code)
}

func isNullData(data []byte) bool {
	return len(data) == 0 || string(data) == "null"
}

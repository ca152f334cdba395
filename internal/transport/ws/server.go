// Package ws serves the chat pipeline over WebSocket connections.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/xiaot623/gogo/chatgate/internal/domain"
	"github.com/xiaot623/gogo/chatgate/internal/observability"
	"github.com/xiaot623/gogo/chatgate/internal/ratelimit"
)

// Chatter runs one chat request through the pipeline.
type Chatter interface {
	Chat(ctx context.Context, req domain.ChatRequest) (domain.ChatResponse, error)
}

// TokenResolver turns a launch token into its claims.
type TokenResolver interface {
	Resolve(raw string) (domain.LaunchClaims, error)
}

// Config holds connection tunables.
type Config struct {
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	MaxMessageSize int64
}

// DefaultConfig returns the standard connection tunables.
func DefaultConfig() Config {
	return Config{
		PingInterval:   30 * time.Second,
		WriteTimeout:   10 * time.Second,
		ReadTimeout:    60 * time.Second,
		MaxMessageSize: 65536,
	}
}

// Server handles WebSocket connections.
type Server struct {
	cfg      Config
	hub      *Hub
	chat     Chatter
	tokens   TokenResolver
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

// NewServer creates a new WebSocket server.
func NewServer(cfg Config, chat Chatter, tokens TokenResolver, log zerolog.Logger) *Server {
	return &Server{
		cfg:    cfg,
		hub:    NewHub(),
		chat:   chat,
		tokens: tokens,
		log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Hub returns the connection registry.
func (s *Server) Hub() *Hub {
	return s.hub
}

// HandleWebSocket handles WebSocket upgrade and connection lifecycle.
func (s *Server) HandleWebSocket(c echo.Context) error {
	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to upgrade websocket")
		return err
	}

	conn := s.hub.NewConnection(ws, ratelimit.ClientKey(c.Request().Header.Get("X-Forwarded-For")))
	s.hub.Register(conn)

	ws.SetReadLimit(s.cfg.MaxMessageSize)

	go s.writePump(conn)
	go s.readPump(conn)

	return nil
}

// readPump reads messages from the WebSocket connection.
func (s *Server) readPump(conn *Connection) {
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		s.hub.Unregister(conn)
		conn.Conn.Close()
	}()

	conn.Conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	conn.Conn.SetPongHandler(func(string) error {
		return conn.Conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	})

	for {
		_, message, err := conn.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.log.Warn().Err(err).Str("conn_id", conn.ID).Msg("websocket read error")
			}
			return
		}
		conn.Conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))

		s.handleMessage(ctx, conn, message)
	}
}

// writePump writes queued messages and keeps the connection alive.
func (s *Server) writePump(conn *Connection) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		conn.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.send:
			conn.Conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if !ok {
				conn.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				s.log.Warn().Err(err).Str("conn_id", conn.ID).Msg("failed to write message")
				return
			}

		case <-ticker.C:
			conn.Conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := conn.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage dispatches incoming messages to appropriate handlers.
func (s *Server) handleMessage(ctx context.Context, conn *Connection, data []byte) {
	var base BaseMessage
	if err := json.Unmarshal(data, &base); err != nil {
		s.sendError(conn, "", ErrorCodeInvalidMessage, "invalid JSON message")
		return
	}

	switch base.Type {
	case TypeHello:
		s.handleHello(conn, data)
	case TypeChat:
		s.handleChat(ctx, conn, data)
	default:
		s.sendError(conn, base.RequestID, ErrorCodeInvalidMessage, "unknown message type: "+base.Type)
	}
}

// handleHello binds the connection to the assistant and thread in the token.
func (s *Server) handleHello(conn *Connection, data []byte) {
	var msg HelloMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(conn, "", ErrorCodeInvalidMessage, "invalid hello message")
		return
	}

	claims, err := s.tokens.Resolve(msg.Token)
	if err != nil {
		s.sendError(conn, msg.RequestID, errorCode(err), err.Error())
		return
	}
	conn.session = &claims

	s.send(conn, HelloAckMessage{
		BaseMessage: BaseMessage{Type: TypeHelloAck, Ts: time.Now().UnixMilli(), RequestID: msg.RequestID},
		Title:       claims.Title,
		ThreadID:    claims.ThreadID,
	})
	s.log.Info().Str("conn_id", conn.ID).Str("thread_id", claims.ThreadID).Msg("hello handshake completed")
}

// handleChat runs the pipeline without blocking the read loop.
func (s *Server) handleChat(ctx context.Context, conn *Connection, data []byte) {
	var msg ChatMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(conn, "", ErrorCodeInvalidMessage, "invalid chat message")
		return
	}

	if conn.session == nil {
		s.sendError(conn, msg.RequestID, ErrorCodeSessionRequired, "must send hello first")
		return
	}

	req := domain.ChatRequest{
		AssistantID: conn.session.AssistantID,
		ThreadID:    conn.session.ThreadID,
		Message:     msg.Content,
		ClientKey:   conn.ClientKey,
	}

	go func() {
		resp, err := s.chat.Chat(ctx, req)
		observability.RecordChatRequest("ws", domain.StatusOf(err))
		if err != nil {
			s.sendError(conn, msg.RequestID, errorCode(err), err.Error())
			return
		}
		s.send(conn, ReplyMessage{
			BaseMessage: BaseMessage{Type: TypeReply, Ts: time.Now().UnixMilli(), RequestID: msg.RequestID},
			Text:        resp.Text,
		})
	}()
}

func (s *Server) send(conn *Connection, v any) {
	if err := conn.SendJSON(v); err != nil && !errors.Is(err, ErrClosed) {
		s.log.Warn().Err(err).Str("conn_id", conn.ID).Msg("failed to queue message")
	}
}

func (s *Server) sendError(conn *Connection, requestID, code, message string) {
	s.send(conn, ErrorMessage{
		BaseMessage: BaseMessage{Type: TypeError, Ts: time.Now().UnixMilli(), RequestID: requestID},
		Code:        code,
		Message:     message,
	})
}

func errorCode(err error) string {
	switch domain.StatusOf(err) {
	case http.StatusBadRequest:
		return ErrorCodeBadRequest
	case http.StatusRequestEntityTooLarge:
		return ErrorCodeTooLarge
	case http.StatusUnauthorized:
		return ErrorCodeUnauthorized
	case http.StatusForbidden:
		return ErrorCodeForbidden
	case http.StatusTooManyRequests:
		return ErrorCodeThrottled
	}
	return ErrorCodeInternalError
}

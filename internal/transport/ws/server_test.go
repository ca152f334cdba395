package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/chatgate/internal/domain"
)

type fakeChatter struct {
	mu   sync.Mutex
	reqs []domain.ChatRequest
	err  error
}

func (f *fakeChatter) Chat(ctx context.Context, req domain.ChatRequest) (domain.ChatResponse, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	if f.err != nil {
		return domain.ChatResponse{}, f.err
	}
	return domain.ChatResponse{OK: true, Text: "echo: " + req.Message}, nil
}

type fakeTokens map[string]domain.LaunchClaims

func (f fakeTokens) Resolve(raw string) (domain.LaunchClaims, error) {
	claims, ok := f[raw]
	if !ok {
		return domain.LaunchClaims{}, &domain.AuthorizationError{Message: "invalid token", Unauthenticated: true}
	}
	return claims, nil
}

func newTestServer(t *testing.T, chat Chatter) *websocket.Conn {
	t.Helper()
	tokens := fakeTokens{"good": {AssistantID: "asst_1", ThreadID: "thread_1", Title: "Model help"}}
	srv := NewServer(DefaultConfig(), chat, tokens, zerolog.Nop())

	e := echo.New()
	e.GET("/ws", srv.HandleWebSocket)
	ts := httptest.NewServer(e)
	t.Cleanup(ts.Close)

	header := http.Header{}
	header.Set("X-Forwarded-For", "198.51.100.4, 10.0.0.1")
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}

func TestChatBeforeHello(t *testing.T) {
	conn := newTestServer(t, &fakeChatter{})

	require.NoError(t, conn.WriteJSON(map[string]any{"type": TypeChat, "request_id": "r1", "content": "ciao"}))

	var msg ErrorMessage
	readJSON(t, conn, &msg)
	assert.Equal(t, TypeError, msg.Type)
	assert.Equal(t, ErrorCodeSessionRequired, msg.Code)
	assert.Equal(t, "r1", msg.RequestID)
}

func TestHelloThenChat(t *testing.T) {
	chat := &fakeChatter{}
	conn := newTestServer(t, chat)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": TypeHello, "token": "good"}))
	var ack HelloAckMessage
	readJSON(t, conn, &ack)
	assert.Equal(t, TypeHelloAck, ack.Type)
	assert.Equal(t, "Model help", ack.Title)
	assert.Equal(t, "thread_1", ack.ThreadID)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": TypeChat, "request_id": "r2", "content": "dove trovo il conto economico?"}))
	var reply ReplyMessage
	readJSON(t, conn, &reply)
	assert.Equal(t, TypeReply, reply.Type)
	assert.Equal(t, "r2", reply.RequestID)
	assert.Equal(t, "echo: dove trovo il conto economico?", reply.Text)

	chat.mu.Lock()
	defer chat.mu.Unlock()
	require.Len(t, chat.reqs, 1)
	assert.Equal(t, "asst_1", chat.reqs[0].AssistantID)
	assert.Equal(t, "198.51.100.4", chat.reqs[0].ClientKey)
}

func TestHelloInvalidToken(t *testing.T) {
	conn := newTestServer(t, &fakeChatter{})

	require.NoError(t, conn.WriteJSON(map[string]any{"type": TypeHello, "token": "bad"}))
	var msg ErrorMessage
	readJSON(t, conn, &msg)
	assert.Equal(t, ErrorCodeUnauthorized, msg.Code)
}

func TestChatErrorIsReported(t *testing.T) {
	conn := newTestServer(t, &fakeChatter{err: &domain.ThrottledError{RetryAfter: time.Second}})

	require.NoError(t, conn.WriteJSON(map[string]any{"type": TypeHello, "token": "good"}))
	var ack HelloAckMessage
	readJSON(t, conn, &ack)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": TypeChat, "request_id": "r3", "content": "x"}))
	var msg ErrorMessage
	readJSON(t, conn, &msg)
	assert.Equal(t, ErrorCodeThrottled, msg.Code)
	assert.Equal(t, "r3", msg.RequestID)
}

func TestUnknownAndInvalidMessages(t *testing.T) {
	conn := newTestServer(t, &fakeChatter{})

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	var msg ErrorMessage
	readJSON(t, conn, &msg)
	assert.Equal(t, ErrorCodeInvalidMessage, msg.Code)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "cancel_run"}))
	readJSON(t, conn, &msg)
	assert.Equal(t, ErrorCodeInvalidMessage, msg.Code)
	assert.Contains(t, msg.Message, "cancel_run")
}

func TestHubCount(t *testing.T) {
	h := NewHub()
	c := h.NewConnection(nil, "k")
	h.Register(c)
	assert.Equal(t, 1, h.Count())

	h.Unregister(c)
	assert.Equal(t, 0, h.Count())
	assert.ErrorIs(t, c.Send([]byte("x")), ErrClosed)
}

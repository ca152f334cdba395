package ws

// Message types from client to server
const (
	TypeHello = "hello"
	TypeChat  = "chat"
)

// Message types from server to client
const (
	TypeHelloAck = "hello_ack"
	TypeReply    = "reply"
	TypeError    = "error"
)

// BaseMessage contains common fields for all messages.
type BaseMessage struct {
	Type      string `json:"type"`
	Ts        int64  `json:"ts"`
	RequestID string `json:"request_id,omitempty"`
}

// HelloMessage opens a session with a launch token.
type HelloMessage struct {
	BaseMessage
	Token string `json:"token"`
}

// HelloAckMessage confirms the session.
type HelloAckMessage struct {
	BaseMessage
	Title    string `json:"title"`
	ThreadID string `json:"thread_id"`
}

// ChatMessage carries one user message.
type ChatMessage struct {
	BaseMessage
	Content string `json:"content"`
}

// ReplyMessage carries the answer to a ChatMessage with the same request_id.
type ReplyMessage struct {
	BaseMessage
	Text string `json:"text"`
}

// ErrorMessage is sent when a message cannot be served.
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrorCodeInvalidMessage  = "invalid_message"
	ErrorCodeUnauthorized    = "unauthorized"
	ErrorCodeSessionRequired = "session_required"
	ErrorCodeBadRequest      = "bad_request"
	ErrorCodeTooLarge        = "too_large"
	ErrorCodeForbidden       = "forbidden"
	ErrorCodeThrottled       = "throttled"
	ErrorCodeInternalError   = "internal_error"
)

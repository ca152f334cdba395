package domain

// ChatRequest is the inbound chat payload.
type ChatRequest struct {
	AssistantID string `json:"assistant_id" validate:"required"`
	ThreadID    string `json:"thread_id" validate:"required"`
	Message     string `json:"message" validate:"required"`
	// ClientKey identifies the caller for rate limiting. It is derived from
	// transport headers, never from the body.
	ClientKey string `json:"-"`
}

// ChatResponse is the outbound success shape.
type ChatResponse struct {
	OK   bool   `json:"ok"`
	Text string `json:"text"`
}

// ErrorResponse is the outbound failure shape.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewThreadRequest is the body accepted when opening a thread. Metadata
// follows the provider limits: 16 pairs, 64 character keys, 512 character values.
type NewThreadRequest struct {
	Metadata map[string]string `json:"metadata,omitempty" validate:"max=16,dive,keys,max=64,endkeys,max=512"`
}

// NewThreadResponse returns the created thread id.
type NewThreadResponse struct {
	OK       bool   `json:"ok"`
	ThreadID string `json:"thread_id"`
}

// LaunchClaims are the fields embedded in a launch token.
type LaunchClaims struct {
	AssistantID string `json:"assistant_id"`
	ThreadID    string `json:"thread_id"`
	Title       string `json:"title"`
}

// ResolveTokenResponse is returned by the token resolver endpoint.
type ResolveTokenResponse struct {
	OK bool `json:"ok"`
	LaunchClaims
}

package domain

import "time"

// Run represents one asynchronous assistant invocation against a thread.
type Run struct {
	RunID       string    `json:"run_id"`
	ThreadID    string    `json:"thread_id"`
	AssistantID string    `json:"assistant_id"`
	Status      RunStatus `json:"status"`
	LastError   string    `json:"last_error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ScopeDecision is the classifier verdict for one message.
type ScopeDecision struct {
	InScope  bool       `json:"in_scope"`
	Stage    ScopeStage `json:"stage"`
	Reason   string     `json:"reason,omitempty"`
	Message  string     `json:"-"`
	Evidence string     `json:"-"`
}

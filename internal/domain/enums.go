// Package domain defines the core domain models for the chat gateway.
package domain

// RunStatus represents the status of an assistant run as reported by the provider.
type RunStatus string

const (
	RunStatusQueued         RunStatus = "queued"
	RunStatusInProgress     RunStatus = "in_progress"
	RunStatusRequiresAction RunStatus = "requires_action"
	RunStatusCancelling     RunStatus = "cancelling"
	RunStatusCompleted      RunStatus = "completed"
	RunStatusFailed         RunStatus = "failed"
	RunStatusCancelled      RunStatus = "cancelled"
	RunStatusExpired        RunStatus = "expired"
	RunStatusIncomplete     RunStatus = "incomplete"
)

// IsTerminal reports whether the poll loop should stop on this status.
// requires_action is terminal here because tool calls are never answered.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed, RunStatusCancelled, RunStatusExpired,
		RunStatusIncomplete, RunStatusRequiresAction:
		return true
	}
	return false
}

// Role is the author of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ScopeStage names the classifier stage that produced a verdict.
type ScopeStage string

const (
	ScopeStageHeuristic ScopeStage = "heuristic"
	ScopeStageContext   ScopeStage = "context"
	ScopeStageModel     ScopeStage = "model"
	ScopeStageFailOpen  ScopeStage = "fail_open"
	ScopeStageNone      ScopeStage = "none"
)

// ListOrder is the sort direction when listing turns.
type ListOrder string

const (
	OrderAsc  ListOrder = "asc"
	OrderDesc ListOrder = "desc"
)

// Package assistant provides clients for the hosted assistant provider.
package assistant

import (
	"context"

	"github.com/xiaot623/gogo/chatgate/internal/domain"
)

// Provider is the asynchronous assistant job API: threads of turns, and runs
// that produce assistant turns.
type Provider interface {
	// CreateThread opens an empty thread.
	CreateThread(ctx context.Context, metadata map[string]string) (*domain.Thread, error)

	// AppendTurn adds a turn to a thread.
	AppendTurn(ctx context.Context, threadID string, role domain.Role, content string) (*domain.Turn, error)

	// CreateRun starts the assistant on a thread. additionalInstructions may be empty.
	CreateRun(ctx context.Context, threadID, assistantID, additionalInstructions string) (*domain.Run, error)

	// GetRun fetches the current state of a run.
	GetRun(ctx context.Context, threadID, runID string) (*domain.Run, error)

	// ListTurns lists up to limit turns of a thread.
	ListTurns(ctx context.Context, threadID string, order domain.ListOrder, limit int) ([]domain.Turn, error)
}

// Completer performs a single-shot chat completion used for scope classification.
type Completer interface {
	Classify(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Ensure implementations satisfy the interfaces.
var (
	_ Provider  = (*OpenAIClient)(nil)
	_ Completer = (*OpenAIClient)(nil)
	_ Provider  = (*LocalProvider)(nil)
	_ Completer = (*LocalProvider)(nil)
)

package assistant

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/xiaot623/gogo/chatgate/internal/domain"
	"github.com/xiaot623/gogo/chatgate/internal/repository"
)

// LocalProvider emulates the assistant provider on top of a local store.
// Each GetRun advances a run one step: queued, in_progress, completed.
// On completion an assistant turn echoing the latest user turn is appended.
type LocalProvider struct {
	store repository.Store
	log   zerolog.Logger

	// Verdict is returned by Classify. Defaults to "IN".
	Verdict string
}

// NewLocalProvider creates an emulator backed by store.
func NewLocalProvider(store repository.Store, log zerolog.Logger) *LocalProvider {
	return &LocalProvider{store: store, log: log, Verdict: "IN"}
}

// CreateThread opens an empty thread.
func (p *LocalProvider) CreateThread(ctx context.Context, metadata map[string]string) (*domain.Thread, error) {
	thread := &domain.Thread{
		ThreadID:  "thread_" + uuid.NewString(),
		CreatedAt: time.Now(),
		Metadata:  metadata,
	}
	if err := p.store.CreateThread(ctx, thread); err != nil {
		return nil, fmt.Errorf("failed to create thread: %w", err)
	}
	return thread, nil
}

// AppendTurn adds a text turn to an existing thread.
func (p *LocalProvider) AppendTurn(ctx context.Context, threadID string, role domain.Role, content string) (*domain.Turn, error) {
	if err := p.requireThread(ctx, threadID); err != nil {
		return nil, err
	}
	turn := &domain.Turn{
		TurnID:    "msg_" + uuid.NewString(),
		ThreadID:  threadID,
		Role:      role,
		Content:   []domain.ContentBlock{domain.TextBlock{Value: content}},
		CreatedAt: time.Now(),
	}
	if err := p.store.CreateTurn(ctx, turn); err != nil {
		return nil, fmt.Errorf("failed to append turn: %w", err)
	}
	return turn, nil
}

// CreateRun queues a run on the thread.
func (p *LocalProvider) CreateRun(ctx context.Context, threadID, assistantID, additionalInstructions string) (*domain.Run, error) {
	if err := p.requireThread(ctx, threadID); err != nil {
		return nil, err
	}
	run := &domain.Run{
		RunID:       "run_" + uuid.NewString(),
		ThreadID:    threadID,
		AssistantID: assistantID,
		Status:      domain.RunStatusQueued,
		CreatedAt:   time.Now(),
	}
	if err := p.store.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	p.log.Debug().Str("run_id", run.RunID).Bool("has_instructions", additionalInstructions != "").Msg("local run queued")
	return run, nil
}

// GetRun returns the run and advances it one step.
func (p *LocalProvider) GetRun(ctx context.Context, threadID, runID string) (*domain.Run, error) {
	run, err := p.store.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	if run == nil || run.ThreadID != threadID {
		return nil, fmt.Errorf("run not found: %s", runID)
	}

	var next domain.RunStatus
	switch run.Status {
	case domain.RunStatusQueued:
		next = domain.RunStatusInProgress
	case domain.RunStatusInProgress:
		if err := p.reply(ctx, threadID); err != nil {
			if updErr := p.store.UpdateRunStatus(ctx, runID, domain.RunStatusFailed, err.Error()); updErr != nil {
				return nil, updErr
			}
			run.Status = domain.RunStatusFailed
			run.LastError = err.Error()
			return run, nil
		}
		next = domain.RunStatusCompleted
	default:
		return run, nil
	}

	if err := p.store.UpdateRunStatus(ctx, runID, next, ""); err != nil {
		return nil, fmt.Errorf("failed to update run: %w", err)
	}
	run.Status = next
	return run, nil
}

// ListTurns lists turns of the thread.
func (p *LocalProvider) ListTurns(ctx context.Context, threadID string, order domain.ListOrder, limit int) ([]domain.Turn, error) {
	if err := p.requireThread(ctx, threadID); err != nil {
		return nil, err
	}
	return p.store.ListTurns(ctx, threadID, order, limit)
}

// Classify returns the configured verdict.
func (p *LocalProvider) Classify(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return p.Verdict, nil
}

func (p *LocalProvider) requireThread(ctx context.Context, threadID string) error {
	thread, err := p.store.GetThread(ctx, threadID)
	if err != nil {
		return fmt.Errorf("failed to get thread: %w", err)
	}
	if thread == nil {
		return fmt.Errorf("thread not found: %s", threadID)
	}
	return nil
}

func (p *LocalProvider) reply(ctx context.Context, threadID string) error {
	turns, err := p.store.ListTurns(ctx, threadID, domain.OrderDesc, 10)
	if err != nil {
		return err
	}
	var last string
	for _, t := range turns {
		if t.Role == domain.RoleUser {
			last = t.Text(" ")
			break
		}
	}
	_, err = p.AppendTurn(ctx, threadID, domain.RoleAssistant, fmt.Sprintf("[MOCK] Received your message: %q", last))
	return err
}

package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/xiaot623/gogo/chatgate/internal/clock"
	"github.com/xiaot623/gogo/chatgate/internal/domain"
	"github.com/xiaot623/gogo/chatgate/internal/ratelimit"
	"github.com/xiaot623/gogo/chatgate/internal/scope"
)

// fakeProvider replays scripted run statuses. The last status repeats.
type fakeProvider struct {
	mu       sync.Mutex
	statuses []domain.RunStatus
	pollErr  error
	turns    []domain.Turn
	listErr  error

	appends int
	runs    int
	polls   int
}

func (f *fakeProvider) CreateThread(ctx context.Context, metadata map[string]string) (*domain.Thread, error) {
	return &domain.Thread{ThreadID: "thread_new", Metadata: metadata, CreatedAt: time.Now()}, nil
}

func (f *fakeProvider) AppendTurn(ctx context.Context, threadID string, role domain.Role, content string) (*domain.Turn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appends++
	return &domain.Turn{TurnID: "msg_user", ThreadID: threadID, Role: role, Content: []domain.ContentBlock{domain.TextBlock{Value: content}}}, nil
}

func (f *fakeProvider) CreateRun(ctx context.Context, threadID, assistantID, additionalInstructions string) (*domain.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs++
	return &domain.Run{RunID: "run_1", ThreadID: threadID, AssistantID: assistantID, Status: domain.RunStatusQueued}, nil
}

func (f *fakeProvider) GetRun(ctx context.Context, threadID, runID string) (*domain.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	if f.pollErr != nil {
		return nil, f.pollErr
	}
	idx := f.polls - 1
	if idx >= len(f.statuses) {
		idx = len(f.statuses) - 1
	}
	return &domain.Run{RunID: runID, ThreadID: threadID, Status: f.statuses[idx]}, nil
}

func (f *fakeProvider) ListTurns(ctx context.Context, threadID string, order domain.ListOrder, limit int) ([]domain.Turn, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if limit > 0 && len(f.turns) > limit {
		return f.turns[:limit], nil
	}
	return f.turns, nil
}

// countingCompleter answers with a fixed verdict and counts calls.
type countingCompleter struct {
	answer string
	err    error
	calls  int
}

func (c *countingCompleter) Classify(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	c.calls++
	return c.answer, c.err
}

func assistantTurn(blocks ...string) domain.Turn {
	content := make([]domain.ContentBlock, 0, len(blocks))
	for _, b := range blocks {
		content = append(content, domain.TextBlock{Value: b})
	}
	return domain.Turn{TurnID: "msg_asst", Role: domain.RoleAssistant, Content: content}
}

type testEnv struct {
	svc       *Service
	provider  *fakeProvider
	completer *countingCompleter
	clock     *clock.Fake
}

func newTestEnv(t *testing.T, cfg Config) *testEnv {
	t.Helper()
	clk := clock.NewFake(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	provider := &fakeProvider{statuses: []domain.RunStatus{domain.RunStatusCompleted}}
	completer := &countingCompleter{answer: "IN"}
	classifier := scope.NewClassifier(scope.DefaultPolicy(), provider, completer)
	limiter := ratelimit.NewMemory(ratelimit.DefaultCooldown, clk)

	svc := New(provider, classifier, limiter, nil, cfg, WithClock(clk))
	return &testEnv{svc: svc, provider: provider, completer: completer, clock: clk}
}

var errBoom = errors.New("boom")

package service

import (
	"context"
	"fmt"

	"github.com/xiaot623/gogo/chatgate/internal/domain"
	"github.com/xiaot623/gogo/chatgate/internal/observability"
)

// RunAssistant appends message as a user turn, starts a run and waits for it.
// It is not idempotent: each call appends one turn and creates one run.
func (s *Service) RunAssistant(ctx context.Context, assistantID, threadID, message string) (*domain.Run, error) {
	if _, err := s.provider.AppendTurn(ctx, threadID, domain.RoleUser, message); err != nil {
		return nil, fmt.Errorf("failed to append user turn: %w", err)
	}

	run, err := s.provider.CreateRun(ctx, threadID, assistantID, s.cfg.AdditionalInstructions)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	s.log.Debug().Str("thread_id", threadID).Str("run_id", run.RunID).Msg("run created")

	return s.WaitForRun(ctx, threadID, run.RunID)
}

// WaitForRun polls the run until it is terminal or the run timeout elapses.
// The timeout is measured from the first poll. A timed out run is left
// running upstream.
func (s *Service) WaitForRun(ctx context.Context, threadID, runID string) (*domain.Run, error) {
	start := s.clock.Now()
	polls := 0

	for s.clock.Now().Sub(start) < s.cfg.RunTimeout {
		run, err := s.provider.GetRun(ctx, threadID, runID)
		polls++
		if err != nil {
			observability.RecordRunOutcome("error", s.clock.Now().Sub(start))
			return nil, fmt.Errorf("failed to poll run %s: %w", runID, err)
		}

		if run.Status.IsTerminal() {
			elapsed := s.clock.Now().Sub(start)
			observability.RecordRunOutcome(string(run.Status), elapsed)
			s.log.Info().
				Str("run_id", runID).
				Str("status", string(run.Status)).
				Int("polls", polls).
				Dur("elapsed", elapsed).
				Msg("run finished")

			switch run.Status {
			case domain.RunStatusCompleted:
				return run, nil
			case domain.RunStatusRequiresAction:
				return nil, &domain.UnsupportedActionError{RunID: runID}
			default:
				return nil, &domain.ProviderTerminalError{RunID: runID, Status: run.Status, Detail: run.LastError}
			}
		}

		if err := s.clock.Sleep(ctx, s.cfg.PollInterval); err != nil {
			return nil, fmt.Errorf("wait for run %s: %w", runID, err)
		}
	}

	elapsed := s.clock.Now().Sub(start)
	observability.RecordRunOutcome("timeout", elapsed)
	s.log.Warn().Str("run_id", runID).Int("polls", polls).Dur("elapsed", elapsed).Msg("run timed out")
	return nil, &domain.TimeoutError{RunID: runID, Elapsed: elapsed}
}

package service

import (
	"context"
	"fmt"

	"github.com/xiaot623/gogo/chatgate/internal/domain"
	"github.com/xiaot623/gogo/chatgate/internal/observability"
	"github.com/xiaot623/gogo/chatgate/internal/sanitize"
)

// blockSeparator joins the text blocks of one assistant turn.
const blockSeparator = "\n\n"

// ResolveReply returns the cleaned text of the most recent assistant turn, or
// the fallback message when it is missing, empty or uncertain.
func (s *Service) ResolveReply(ctx context.Context, threadID string) (string, error) {
	turns, err := s.provider.ListTurns(ctx, threadID, domain.OrderDesc, s.cfg.ResolvePageSize)
	if err != nil {
		return "", fmt.Errorf("failed to list turns: %w", err)
	}

	var text string
	for _, turn := range turns {
		if turn.Role == domain.RoleAssistant {
			text = turn.Text(blockSeparator)
			break
		}
	}
	text = sanitize.Text(text)

	p := s.classifier.Policy()
	if text == "" || p.IsUncertain(text) {
		observability.RecordFallback()
		s.log.Info().Str("thread_id", threadID).Bool("empty", text == "").Msg("replacing reply with fallback")
		return p.FallbackMessage, nil
	}
	return text, nil
}

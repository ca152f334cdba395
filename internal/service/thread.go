package service

import (
	"context"
	"fmt"

	"github.com/xiaot623/gogo/chatgate/internal/domain"
)

// CreateThread opens a new conversation thread.
func (s *Service) CreateThread(ctx context.Context, metadata map[string]string) (*domain.Thread, error) {
	thread, err := s.provider.CreateThread(ctx, metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to create thread: %w", err)
	}
	s.log.Info().Str("thread_id", thread.ThreadID).Msg("thread created")
	return thread, nil
}

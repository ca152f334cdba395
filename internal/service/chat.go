package service

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/xiaot623/gogo/chatgate/internal/domain"
	"github.com/xiaot623/gogo/chatgate/internal/observability"
	"github.com/xiaot623/gogo/chatgate/internal/ratelimit"
	"github.com/xiaot623/gogo/chatgate/policy"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags and reports the first violation as a
// *domain.ValidationError.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &domain.ValidationError{
			Field:   fe.Field(),
			Message: fmt.Sprintf("%s is %s", fe.Field(), fe.Tag()),
		}
	}
	return &domain.ValidationError{Message: err.Error()}
}

// Chat runs one message through the full pipeline and returns the reply.
// An out-of-scope message is answered with the refusal text and never
// reaches the provider.
func (s *Service) Chat(ctx context.Context, req domain.ChatRequest) (domain.ChatResponse, error) {
	if err := s.validateChat(req); err != nil {
		return domain.ChatResponse{}, err
	}

	if err := s.authorize(ctx, req); err != nil {
		return domain.ChatResponse{}, err
	}

	key := req.ClientKey
	if key == "" {
		key = ratelimit.UnknownClient
	}
	if err := s.limiter.Allow(ctx, key); err != nil {
		return domain.ChatResponse{}, err
	}

	log := s.log.With().Str("thread_id", req.ThreadID).Str("assistant_id", req.AssistantID).Logger()

	decision := s.classifier.Classify(ctx, req.ThreadID, req.Message)
	observability.RecordScopeDecision(decision)
	log.Info().
		Bool("in_scope", decision.InScope).
		Str("stage", string(decision.Stage)).
		Str("reason", decision.Reason).
		Msg("scope decision")
	if !decision.InScope {
		return domain.ChatResponse{OK: true, Text: s.classifier.Policy().RefusalMessage}, nil
	}

	if _, err := s.RunAssistant(ctx, req.AssistantID, req.ThreadID, req.Message); err != nil {
		log.Error().Err(err).Msg("assistant run failed")
		return domain.ChatResponse{}, err
	}

	text, err := s.ResolveReply(ctx, req.ThreadID)
	if err != nil {
		log.Error().Err(err).Msg("failed to resolve reply")
		return domain.ChatResponse{}, err
	}
	return domain.ChatResponse{OK: true, Text: text}, nil
}

func (s *Service) validateChat(req domain.ChatRequest) error {
	if err := Validate(req); err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			verr.Message = "missing assistant_id, thread_id or message"
		}
		return err
	}
	if n := utf8.RuneCountInString(req.Message); n > s.cfg.MaxMessageChars {
		return &domain.ValidationError{
			Field:    "message",
			Message:  fmt.Sprintf("message too long: %d characters, limit is %d", n, s.cfg.MaxMessageChars),
			TooLarge: true,
		}
	}
	return nil
}

func (s *Service) authorize(ctx context.Context, req domain.ChatRequest) error {
	if s.access == nil {
		return nil
	}
	decision, err := s.access.Evaluate(ctx, policy.Input{
		AssistantID:        req.AssistantID,
		ThreadID:           req.ThreadID,
		AllowedAssistantID: s.cfg.AllowedAssistantID,
		AllowedThreadID:    s.cfg.AllowedThreadID,
	})
	if err != nil {
		return fmt.Errorf("access policy: %w", err)
	}
	if !decision.Allow {
		s.log.Warn().Str("assistant_id", req.AssistantID).Str("thread_id", req.ThreadID).Str("reason", decision.Reason).Msg("access denied")
		return &domain.AuthorizationError{Message: "forbidden: " + decision.Reason}
	}
	return nil
}

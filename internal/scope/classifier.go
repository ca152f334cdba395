package scope

import (
	"context"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/xiaot623/gogo/chatgate/internal/domain"
	"github.com/xiaot623/gogo/chatgate/internal/sanitize"
)

// DefaultHistoryWindow is how many recent turns feed follow-up detection.
const DefaultHistoryWindow = 6

// TurnLister fetches recent turns of a thread.
type TurnLister interface {
	ListTurns(ctx context.Context, threadID string, order domain.ListOrder, limit int) ([]domain.Turn, error)
}

// Completer performs a single-shot, deterministic classification call.
type Completer interface {
	Classify(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Classifier runs the two-stage scope decision.
type Classifier struct {
	policy    *Policy
	turns     TurnLister
	completer Completer
	window    int
	log       zerolog.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithHistoryWindow sets how many recent turns are used as context.
func WithHistoryWindow(n int) Option {
	return func(c *Classifier) {
		if n > 0 {
			c.window = n
		}
	}
}

// WithLogger sets the classifier logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Classifier) { c.log = log }
}

// NewClassifier creates a classifier. completer may be nil, in which case an
// inconclusive heuristic resolves fail-open.
func NewClassifier(policy *Policy, turns TurnLister, completer Completer, opts ...Option) *Classifier {
	c := &Classifier{
		policy:    policy,
		turns:     turns,
		completer: completer,
		window:    DefaultHistoryWindow,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Policy returns the policy the classifier evaluates.
func (c *Classifier) Policy() *Policy {
	return c.policy
}

// Classify decides whether message is in scope for threadID.
func (c *Classifier) Classify(ctx context.Context, threadID, message string) domain.ScopeDecision {
	lower := strings.ToLower(message)
	decision := domain.ScopeDecision{Message: message, Stage: domain.ScopeStageNone}

	switch {
	case c.policy.hasStrong(lower):
		decision.InScope, decision.Stage, decision.Reason = true, domain.ScopeStageHeuristic, "strong term"
		return decision
	case c.policy.hasWeak(lower) && c.policy.hasAction(lower):
		decision.InScope, decision.Stage, decision.Reason = true, domain.ScopeStageHeuristic, "domain term with action"
		return decision
	}

	recent := c.recentContext(ctx, threadID)
	decision.Evidence = recent
	if c.followsUp(lower, strings.ToLower(recent)) {
		decision.InScope, decision.Stage, decision.Reason = true, domain.ScopeStageContext, "actionable follow-up"
		return decision
	}

	return c.askModel(ctx, decision)
}

// followsUp lets a short reply inherit scope from the conversation, but only
// when the reply itself shows intent or domain vocabulary.
func (c *Classifier) followsUp(lowerMessage, lowerContext string) bool {
	if lowerContext == "" {
		return false
	}
	if !c.policy.hasStrong(lowerContext) && !c.policy.hasWeak(lowerContext) {
		return false
	}
	return c.policy.hasAction(lowerMessage) || c.policy.hasWeak(lowerMessage)
}

func (c *Classifier) recentContext(ctx context.Context, threadID string) string {
	if c.turns == nil || threadID == "" {
		return ""
	}
	turns, err := c.turns.ListTurns(ctx, threadID, domain.OrderDesc, c.window)
	if err != nil {
		c.log.Warn().Err(err).Str("thread_id", threadID).Msg("failed to load recent turns, classifying without context")
		return ""
	}
	slices.Reverse(turns)

	lines := make([]string, 0, len(turns))
	for _, turn := range turns {
		text := sanitize.Text(turn.Text(" "))
		if text == "" {
			continue
		}
		lines = append(lines, string(turn.Role)+": "+text)
	}
	return strings.Join(lines, "\n")
}

func (c *Classifier) askModel(ctx context.Context, decision domain.ScopeDecision) domain.ScopeDecision {
	if c.completer == nil {
		decision.InScope, decision.Stage, decision.Reason = true, domain.ScopeStageFailOpen, "no classifier configured"
		return decision
	}

	answer, err := c.completer.Classify(ctx, c.systemPrompt(), userPrompt(decision.Evidence, decision.Message))
	if err != nil {
		c.log.Warn().Err(err).Msg("scope classification call failed, allowing message")
		decision.InScope, decision.Stage, decision.Reason = true, domain.ScopeStageFailOpen, "classifier unavailable"
		return decision
	}

	verdict, ok := parseVerdict(answer)
	if !ok {
		c.log.Warn().Str("answer", answer).Msg("unparseable scope verdict, allowing message")
		decision.InScope, decision.Stage, decision.Reason = true, domain.ScopeStageFailOpen, "unparseable verdict"
		return decision
	}

	decision.InScope, decision.Stage = verdict, domain.ScopeStageModel
	if verdict {
		decision.Reason = "model: in scope"
	} else {
		decision.Reason = "model: out of scope"
	}
	return decision
}

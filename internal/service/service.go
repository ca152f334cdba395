// Package service implements the chat pipeline: validation, access and rate
// gates, scope classification, run orchestration and reply resolution.
package service

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/xiaot623/gogo/chatgate/internal/adapter/assistant"
	"github.com/xiaot623/gogo/chatgate/internal/clock"
	"github.com/xiaot623/gogo/chatgate/internal/ratelimit"
	"github.com/xiaot623/gogo/chatgate/internal/scope"
	"github.com/xiaot623/gogo/chatgate/policy"
)

const (
	DefaultPollInterval    = 800 * time.Millisecond
	DefaultRunTimeout      = 60 * time.Second
	DefaultMaxMessageChars = 4000
	DefaultResolvePageSize = 10
)

// Config holds the pipeline tunables.
type Config struct {
	PollInterval           time.Duration
	RunTimeout             time.Duration
	AdditionalInstructions string
	MaxMessageChars        int
	ResolvePageSize        int

	// Optional allow-list, evaluated by the access policy. Empty means any.
	AllowedAssistantID string
	AllowedThreadID    string
}

func (c *Config) applyDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.RunTimeout <= 0 {
		c.RunTimeout = DefaultRunTimeout
	}
	if c.MaxMessageChars <= 0 {
		c.MaxMessageChars = DefaultMaxMessageChars
	}
	if c.ResolvePageSize <= 0 {
		c.ResolvePageSize = DefaultResolvePageSize
	}
}

type Service struct {
	provider   assistant.Provider
	classifier *scope.Classifier
	limiter    ratelimit.Limiter
	access     *policy.Engine
	cfg        Config
	clock      clock.Clock
	log        zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the wall clock used by the run poll loop.
func WithClock(clk clock.Clock) Option {
	return func(s *Service) { s.clock = clk }
}

// WithLogger sets the service logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// New creates the service. access may be nil to skip the allow-list.
func New(provider assistant.Provider, classifier *scope.Classifier, limiter ratelimit.Limiter, access *policy.Engine, cfg Config, opts ...Option) *Service {
	cfg.applyDefaults()
	s := &Service{
		provider:   provider,
		classifier: classifier,
		limiter:    limiter,
		access:     access,
		cfg:        cfg,
		clock:      clock.Real{},
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

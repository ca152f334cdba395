package assistant

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/xiaot623/gogo/chatgate/internal/repository"
)

const (
	// ModeOpenAI talks to the hosted provider.
	ModeOpenAI = "openai"
	// ModeMock uses the in-process emulator.
	ModeMock = "mock"
)

// Client is both a Provider and a Completer.
type Client interface {
	Provider
	Completer
}

// Config selects and configures a client.
type Config struct {
	Mode   string
	OpenAI OpenAIConfig
	// DSN of the emulator store, used in mock mode.
	DSN string
}

// NewClient creates a client based on the configured mode. The returned
// close function releases emulator resources and is never nil.
func NewClient(cfg Config, log zerolog.Logger) (Client, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Mode {
	case ModeMock:
		dsn := cfg.DSN
		if dsn == "" {
			dsn = ":memory:"
		}
		store, err := repository.NewSQLiteStore(dsn)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to open emulator store: %w", err)
		}
		log.Warn().Str("dsn", dsn).Msg("provider.mode=mock, using local assistant emulator")
		return NewLocalProvider(store, log), store.Close, nil
	case ModeOpenAI, "":
		client, err := NewOpenAIClient(cfg.OpenAI, log)
		if err != nil {
			return nil, noop, err
		}
		return client, noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown provider mode: %q", cfg.Mode)
	}
}

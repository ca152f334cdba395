package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/xiaot623/gogo/chatgate/internal/adapter/assistant"
	"github.com/xiaot623/gogo/chatgate/internal/config"
	"github.com/xiaot623/gogo/chatgate/internal/logging"
	"github.com/xiaot623/gogo/chatgate/internal/ratelimit"
	"github.com/xiaot623/gogo/chatgate/internal/scope"
	"github.com/xiaot623/gogo/chatgate/internal/service"
	"github.com/xiaot623/gogo/chatgate/internal/token"
	transporthttp "github.com/xiaot623/gogo/chatgate/internal/transport/http"
	"github.com/xiaot623/gogo/chatgate/internal/transport/ws"
	"github.com/xiaot623/gogo/chatgate/policy"
)

// App is the fully wired gateway.
type App struct {
	Service *service.Service
	Tokens  *token.Issuer
	Server  *echo.Echo

	closers []func() error
}

// NewApp wires every component from cfg.
func NewApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	app := &App{}

	client, closeClient, err := assistant.NewClient(assistant.Config{
		Mode: cfg.Provider.Mode,
		OpenAI: assistant.OpenAIConfig{
			APIKey:          cfg.Provider.APIKey,
			BaseURL:         cfg.Provider.BaseURL,
			ClassifierModel: cfg.Provider.ClassifierModel,
			Timeout:         cfg.Provider.Timeout,
		},
		DSN: cfg.Database.DSN,
	}, logging.Component(log, "assistant"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize assistant client: %w", err)
	}
	app.closers = append(app.closers, closeClient)

	scopePolicy, err := scope.LoadPolicy(cfg.Scope.PolicyFile)
	if err != nil {
		app.Close()
		return nil, err
	}
	classifier := scope.NewClassifier(scopePolicy, client, client,
		scope.WithHistoryWindow(cfg.Chat.HistoryWindow),
		scope.WithLogger(logging.Component(log, "scope")),
	)

	limiter, err := newLimiter(ctx, cfg, logging.Component(log, "ratelimit"))
	if err != nil {
		app.Close()
		return nil, err
	}
	if closer, ok := limiter.(interface{ Close() error }); ok {
		app.closers = append(app.closers, closer.Close)
	}

	access, err := policy.NewDefaultEngine(ctx)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize access policy: %w", err)
	}

	app.Service = service.New(client, classifier, limiter, access, service.Config{
		PollInterval:           cfg.Run.PollInterval,
		RunTimeout:             cfg.Run.Timeout,
		AdditionalInstructions: cfg.Run.AdditionalInstructions,
		MaxMessageChars:        cfg.Chat.MaxMessageChars,
		ResolvePageSize:        cfg.Chat.ResolvePageSize,
		AllowedAssistantID:     cfg.Access.AssistantID,
		AllowedThreadID:        cfg.Access.ThreadID,
	}, service.WithLogger(logging.Component(log, "service")))

	app.Tokens = token.NewIssuer(cfg.Token.Secret, cfg.Token.TTL)
	if cfg.Token.Secret == "" {
		log.Warn().Msg("token.secret is not set, launch tokens are disabled")
	}

	wsServer := ws.NewServer(ws.DefaultConfig(), app.Service, app.Tokens, logging.Component(log, "ws"))
	app.Server = transporthttp.NewServer(transporthttp.Deps{
		Service:    app.Service,
		Tokens:     app.Tokens,
		WS:         wsServer,
		AdminToken: cfg.Access.AdminToken,
		Log:        logging.Component(log, "http"),
	})

	return app, nil
}

// Close releases the provider and limiter resources.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func newLimiter(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ratelimit.Limiter, error) {
	switch cfg.RateLimit.Backend {
	case "redis":
		limiter, err := ratelimit.NewRedis(ctx, ratelimit.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cfg.RateLimit.Cooldown, log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect rate limit backend: %w", err)
		}
		return limiter, nil
	default:
		return ratelimit.NewMemory(cfg.RateLimit.Cooldown, nil), nil
	}
}

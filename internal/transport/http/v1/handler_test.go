package v1

import (
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/xiaot623/gogo/chatgate/internal/adapter/assistant"
	"github.com/xiaot623/gogo/chatgate/internal/clock"
	"github.com/xiaot623/gogo/chatgate/internal/ratelimit"
	"github.com/xiaot623/gogo/chatgate/internal/repository"
	"github.com/xiaot623/gogo/chatgate/internal/scope"
	"github.com/xiaot623/gogo/chatgate/internal/service"
	"github.com/xiaot623/gogo/chatgate/internal/token"
)

const testAdminToken = "admin-secret"

func newTestHandler(t *testing.T) (*Handler, *assistant.LocalProvider) {
	t.Helper()

	store, err := repository.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	provider := assistant.NewLocalProvider(store, zerolog.Nop())
	clk := clock.NewFake(time.Now())
	classifier := scope.NewClassifier(scope.DefaultPolicy(), provider, provider)
	limiter := ratelimit.NewMemory(ratelimit.DefaultCooldown, clk)
	svc := service.New(provider, classifier, limiter, nil, service.Config{}, service.WithClock(clk))

	return NewHandler(svc, token.NewIssuer("test-secret", 0), testAdminToken, zerolog.Nop()), provider
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = RequestValidator{}
	return e
}

// Package http provides the HTTP server of the chat gateway.
package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/xiaot623/gogo/chatgate/internal/observability"
	"github.com/xiaot623/gogo/chatgate/internal/service"
	"github.com/xiaot623/gogo/chatgate/internal/token"
	v1 "github.com/xiaot623/gogo/chatgate/internal/transport/http/v1"
	"github.com/xiaot623/gogo/chatgate/internal/transport/ws"
)

// Deps are the collaborators the server routes to.
type Deps struct {
	Service    *service.Service
	Tokens     *token.Issuer
	WS         *ws.Server
	AdminToken string
	Log        zerolog.Logger
}

// NewServer creates and configures the public HTTP server.
func NewServer(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = v1.RequestValidator{}

	// Middleware
	e.Use(middleware.RequestID())
	e.Use(RequestLogger(d.Log))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Handlers
	v1Handler := v1.NewHandler(d.Service, d.Tokens, d.AdminToken, d.Log)
	v1Handler.RegisterRoutes(e)

	if d.WS != nil {
		e.GET("/ws", d.WS.HandleWebSocket)
	}
	e.GET("/metrics", echo.WrapHandler(observability.Handler()))

	return e
}

// RequestLogger logs one zerolog event per request.
func RequestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			event := log.Info()
			if v.Error != nil || v.Status >= 500 {
				event = log.Error().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}

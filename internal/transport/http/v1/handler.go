// Package v1 provides the HTTP handlers of the chat gateway.
package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/xiaot623/gogo/chatgate/internal/domain"
	"github.com/xiaot623/gogo/chatgate/internal/service"
	"github.com/xiaot623/gogo/chatgate/internal/token"
)

// Version is reported by the health endpoint.
var Version = "0.1.0"

// Handler handles HTTP requests.
type Handler struct {
	service    *service.Service
	tokens     *token.Issuer
	adminToken string
	log        zerolog.Logger
}

// NewHandler creates a new handler. An empty adminToken leaves thread
// creation open.
func NewHandler(svc *service.Service, tokens *token.Issuer, adminToken string, log zerolog.Logger) *Handler {
	return &Handler{
		service:    svc,
		tokens:     tokens,
		adminToken: adminToken,
		log:        log,
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/chat", h.Chat)
	e.POST("/api/new-thread", h.NewThread)

	// Launch tokens
	e.GET("/api/issue", h.IssueToken)
	e.GET("/api/token/resolve", h.ResolveToken)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": Version,
	})
}

func errorJSON(c echo.Context, err error) error {
	return c.JSON(domain.StatusOf(err), domain.ErrorResponse{Error: err.Error()})
}

// RequestValidator adapts the service validation rules to echo.
type RequestValidator struct{}

// Validate implements echo.Validator.
func (RequestValidator) Validate(i interface{}) error {
	return service.Validate(i)
}

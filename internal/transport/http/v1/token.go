package v1

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/gogo/chatgate/internal/domain"
	"github.com/xiaot623/gogo/chatgate/internal/token"
)

// LaunchPath is where issued tokens are redirected.
const LaunchPath = "/launch"

// IssueRequest carries the query parameters of the issue endpoint.
type IssueRequest struct {
	AssistantID string `query:"assistant_id" validate:"required"`
	ThreadID    string `query:"thread_id" validate:"required"`
	Title       string `query:"title"`
}

// IssueToken signs a launch token and redirects to the launch page.
// GET /api/issue
func (h *Handler) IssueToken(c echo.Context) error {
	var req IssueRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "invalid query"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "missing assistant_id or thread_id"})
	}

	raw, err := h.tokens.Issue(domain.LaunchClaims{
		AssistantID: req.AssistantID,
		ThreadID:    req.ThreadID,
		Title:       req.Title,
	})
	if err != nil {
		if errors.Is(err, token.ErrNoSecret) {
			h.log.Error().Msg("token secret is not configured")
			return c.JSON(http.StatusInternalServerError, domain.ErrorResponse{Error: "server misconfigured"})
		}
		return errorJSON(c, err)
	}

	return c.Redirect(http.StatusFound, LaunchPath+"?token="+url.QueryEscape(raw))
}

// ResolveToken returns the claims of a launch token.
// GET /api/token/resolve
func (h *Handler) ResolveToken(c echo.Context) error {
	claims, err := h.tokens.Resolve(c.QueryParam("token"))
	if err != nil {
		if errors.Is(err, token.ErrNoSecret) {
			return c.JSON(http.StatusInternalServerError, domain.ErrorResponse{Error: "server misconfigured"})
		}
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, domain.ResolveTokenResponse{OK: true, LaunchClaims: claims})
}

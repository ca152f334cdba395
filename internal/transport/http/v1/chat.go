package v1

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/gogo/chatgate/internal/domain"
	"github.com/xiaot623/gogo/chatgate/internal/observability"
	"github.com/xiaot623/gogo/chatgate/internal/ratelimit"
)

// Chat answers one user message.
// POST /api/chat
func (h *Handler) Chat(c echo.Context) error {
	var req domain.ChatRequest
	if err := c.Bind(&req); err != nil {
		observability.RecordChatRequest("http", http.StatusBadRequest)
		return c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "invalid JSON body"})
	}
	req.ClientKey = ratelimit.ClientKey(c.Request().Header.Get("X-Forwarded-For"))

	resp, err := h.service.Chat(c.Request().Context(), req)
	observability.RecordChatRequest("http", domain.StatusOf(err))
	if err != nil {
		var throttled *domain.ThrottledError
		if errors.As(err, &throttled) {
			secs := int(math.Ceil(throttled.RetryAfter.Seconds()))
			c.Response().Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
		}
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, resp)
}

package v1

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/gogo/chatgate/internal/domain"
)

// NewThread opens a fresh conversation thread.
// POST /api/new-thread
func (h *Handler) NewThread(c echo.Context) error {
	if h.adminToken != "" {
		got := c.Request().Header.Get(echo.HeaderAuthorization)
		if subtle.ConstantTimeCompare([]byte(got), []byte("Bearer "+h.adminToken)) != 1 {
			return c.JSON(http.StatusUnauthorized, domain.ErrorResponse{Error: "unauthorized"})
		}
	}

	var req domain.NewThreadRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "invalid JSON body"})
	}
	if err := c.Validate(&req); err != nil {
		return errorJSON(c, err)
	}

	thread, err := h.service.CreateThread(c.Request().Context(), req.Metadata)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to create thread")
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, domain.NewThreadResponse{OK: true, ThreadID: thread.ThreadID})
}

package domain

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ValidationError reports malformed, missing or over-limit input.
type ValidationError struct {
	Field   string
	Message string
	// TooLarge marks a length violation, reported as 413.
	TooLarge bool
}

func (e *ValidationError) Error() string {
	return e.Message
}

// AuthorizationError reports an allow-list mismatch or an invalid token.
type AuthorizationError struct {
	Message string
	// Unauthenticated selects 401 instead of 403.
	Unauthenticated bool
}

func (e *AuthorizationError) Error() string {
	return e.Message
}

// ThrottledError is returned when a client calls again within the cooldown.
type ThrottledError struct {
	RetryAfter time.Duration
}

func (e *ThrottledError) Error() string {
	return "too many requests, please slow down"
}

// ProviderTerminalError reports a run that ended in a non-success terminal state.
type ProviderTerminalError struct {
	RunID  string
	Status RunStatus
	Detail string
}

func (e *ProviderTerminalError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("run ended with status: %s (%s)", e.Status, e.Detail)
	}
	return fmt.Sprintf("run ended with status: %s", e.Status)
}

// UnsupportedActionError is returned when a run asks for tool output.
type UnsupportedActionError struct {
	RunID string
}

func (e *UnsupportedActionError) Error() string {
	return "run requires_action: unsupported tool action, the assistant is requesting tool output and tool calls are not handled"
}

// TimeoutError is returned when a run does not reach a terminal state in time.
// The run may still be alive upstream.
type TimeoutError struct {
	RunID   string
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout waiting for run %s after %s", e.RunID, e.Elapsed.Round(time.Millisecond))
}

// StatusOf maps an error to the HTTP status the gateway answers with.
func StatusOf(err error) int {
	var (
		validation *ValidationError
		authz      *AuthorizationError
		throttled  *ThrottledError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validation):
		if validation.TooLarge {
			return http.StatusRequestEntityTooLarge
		}
		return http.StatusBadRequest
	case errors.As(err, &authz):
		if authz.Unauthenticated {
			return http.StatusUnauthorized
		}
		return http.StatusForbidden
	case errors.As(err, &throttled):
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

package api

import (
	"context"
	"errors"
	"fmt"
)

// Error is a rejection from the service, decoded from its {"detail": ...}
// error body.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api: status %d: %s", e.StatusCode, e.Message)
}

// Message reduces any error from this package to a string fit for display.
// Service rejections keep the detail the service sent; transport failures
// collapse to a generic reachability message rather than leaking Go error
// chains into the UI.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return fmt.Sprintf("request failed (status %d)", apiErr.StatusCode)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out"
	}
	return "could not reach the budgeting service"
}

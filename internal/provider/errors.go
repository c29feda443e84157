package provider

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error classifies provider call failures.
type Error struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}

	parts := make([]string, 0, 3)
	parts = append(parts, "provider error")

	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		parts = append(parts, msg)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}

	return strings.Join(parts, ": ")
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// IsAuthError reports whether the provider rejected our credentials. An auth
// rejection is a campaign-level failure: every further send in the batch
// would fail the same way.
func IsAuthError(err error) bool {
	var providerErr *Error
	if !errors.As(err, &providerErr) {
		return false
	}
	return providerErr.StatusCode == http.StatusUnauthorized || providerErr.StatusCode == http.StatusForbidden
}

// FailureReason condenses a send error into a low-cardinality metrics label.
func FailureReason(err error) string {
	var providerErr *Error
	if !errors.As(err, &providerErr) {
		return "network_error"
	}

	switch {
	case providerErr.StatusCode == http.StatusTooManyRequests:
		return "rate_limited"
	case providerErr.StatusCode == http.StatusUnauthorized, providerErr.StatusCode == http.StatusForbidden:
		return "auth_rejected"
	case providerErr.StatusCode >= http.StatusInternalServerError:
		return "provider_unavailable"
	case providerErr.StatusCode >= http.StatusBadRequest:
		return "rejected"
	default:
		return "provider_error"
	}
}

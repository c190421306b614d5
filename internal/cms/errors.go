package cms

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	apperrors "github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/errors"
)

// APIError is a non-2xx answer from the CMS. It unwraps to
// apperrors.ErrNotFound for 404 and apperrors.ErrUpstream otherwise.
type APIError struct {
	Status  int
	Message string
	Err     error
}

func newAPIError(status int, message string) *APIError {
	sentinel := apperrors.ErrUpstream
	if status == http.StatusNotFound {
		sentinel = apperrors.ErrNotFound
	}
	return &APIError{Status: status, Message: message, Err: sentinel}
}

func (e *APIError) Error() string {
	return fmt.Sprintf("cms: status %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a CMS "no objects" answer.
func IsNotFound(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound)
}

// transient reports whether a failed call may succeed if repeated.
func transient(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500 || apiErr.Status == http.StatusTooManyRequests
	}
	return errors.Is(err, apperrors.ErrUpstream)
}

// countsAsFailure keeps client errors (bad query, missing object, bad key)
// from tripping the breaker.
func countsAsFailure(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500 || apiErr.Status == http.StatusTooManyRequests
	}
	// A caller giving up says nothing about the CMS.
	if errors.Is(err, context.Canceled) {
		return false
	}
	return true
}

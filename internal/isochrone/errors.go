package isochrone

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers an unmatched address, a stop with no usable trip and
	// an origin missing from the trip it departs on.
	ErrNotFound = errors.New("not found")

	// ErrProviderUnavailable marks a failed read from an external provider.
	// Callers may retry.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrInvalidSchedule marks malformed or non-monotonic provider schedule data.
	ErrInvalidSchedule = errors.New("invalid schedule")

	ErrInvalidRequest = errors.New("invalid request")

	// ErrSuperseded is returned for a computation whose caller has since
	// started a newer one.
	ErrSuperseded = errors.New("computation superseded")
)

// providerError attributes err to a provider operation. Errors that already
// carry a classification keep it; anything else is treated as the provider
// being unavailable.
func providerError(op string, err error) error {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrProviderUnavailable),
		errors.Is(err, ErrInvalidSchedule),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, ErrProviderUnavailable, err)
	}
}

// Outcome is a short label for err used in logs and metrics.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrProviderUnavailable):
		return "provider_unavailable"
	case errors.Is(err, ErrInvalidSchedule):
		return "invalid_schedule"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, ErrSuperseded):
		return "superseded"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}

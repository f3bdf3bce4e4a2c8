package model

import (
	"errors"
	"fmt"
	"time"
)

// Engine error taxonomy. Transport-level transient failures are retried
// internally and only surface as ErrNetworkTransient after the retry budget
// is exhausted; everything else surfaces immediately to the caller.
var (
	// ErrNotConfigured indicates no credentials are stored.
	ErrNotConfigured = errors.New("github credentials not configured")

	// ErrUnauthenticated indicates the stored credentials were rejected.
	ErrUnauthenticated = errors.New("github credentials rejected")

	// ErrNetworkTransient indicates a timeout or connection failure that
	// persisted through the internal retry budget.
	ErrNetworkTransient = errors.New("transient network failure")

	// ErrAlreadyInFlight indicates a duplicate action on a target that
	// already has one outstanding in the same action class.
	ErrAlreadyInFlight = errors.New("action already in flight for target")

	// ErrStorageFailure indicates the credential store is unavailable.
	ErrStorageFailure = errors.New("credential store unavailable")
)

// RateLimitedError is returned when GitHub rejects a call with a rate limit
// response. RetryAfter is how long the caller must wait before retrying.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("github rate limit exceeded, retry after %s", e.RetryAfter.Round(time.Second))
}

// ActionRejectedError is a server-side business rejection of a mutating
// action (e.g. merging a conflicted PR). It is not a transport failure.
type ActionRejectedError struct {
	Reason string
}

func (e *ActionRejectedError) Error() string {
	return fmt.Sprintf("action rejected: %s", e.Reason)
}

// IsRateLimited reports whether err is (or wraps) a RateLimitedError,
// returning the wait duration when it is.
func IsRateLimited(err error) (time.Duration, bool) {
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return rl.RetryAfter, true
	}
	return 0, false
}

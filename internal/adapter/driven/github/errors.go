package github

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	gh "github.com/google/go-github/v82/github"

	"github.com/ericfisherdev/repodeck/internal/domain/model"
)

// classifyError maps a go-github error onto the engine error taxonomy.
// nil passes through unchanged.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var rateLimit *gh.RateLimitError
	if errors.As(err, &rateLimit) {
		retryAfter := time.Until(rateLimit.Rate.Reset.Time)
		if retryAfter < 0 {
			retryAfter = 0
		}
		return &model.RateLimitedError{RetryAfter: retryAfter}
	}

	var abuse *gh.AbuseRateLimitError
	if errors.As(err, &abuse) {
		retryAfter := time.Minute
		if abuse.RetryAfter != nil {
			retryAfter = *abuse.RetryAfter
		}
		return &model.RateLimitedError{RetryAfter: retryAfter}
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		switch ghErr.Response.StatusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", model.ErrUnauthenticated, ghErr.Message)
		case http.StatusForbidden,
			http.StatusMethodNotAllowed,
			http.StatusConflict,
			http.StatusUnprocessableEntity:
			// Server-side business refusal (merge conflict, blocked branch,
			// insufficient permissions), not a transport failure.
			return &model.ActionRejectedError{Reason: ghErr.Message}
		}
	}

	if isTransient(err) {
		return fmt.Errorf("%w: %v", model.ErrNetworkTransient, err)
	}

	return err
}

// isTransient reports whether err is a timeout or connection-level failure
// worth retrying. Rate limit errors and HTTP 4xx responses are not transient.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var rateLimit *gh.RateLimitError
	var abuse *gh.AbuseRateLimitError
	if errors.As(err, &rateLimit) || errors.As(err, &abuse) {
		return false
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) {
		return ghErr.Response != nil && ghErr.Response.StatusCode >= 500
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// isPreResponseFailure reports whether the request failed before any response
// was received (connection could not be established). Only such failures are
// safe to retry for mutating calls: once bytes may have reached the server, a
// retry could duplicate a merge or comment.
func isPreResponseFailure(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial"
	}
	return false
}

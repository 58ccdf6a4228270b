// Package llm - errors.go classifies oracle failures into transient and
// non-transient categories for the retry layer.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net"

	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// TransientError marks a failure as likely to succeed on retry
// (rate limit, timeout, connectivity, service unavailable).
type TransientError struct {
	Message string
	Cause   error
}

func (e *TransientError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("transient oracle error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("transient oracle error: %s", e.Message)
}

func (e *TransientError) Unwrap() error {
	return e.Cause
}

// transient HTTP status codes returned by the Gemini REST surface
func transientHTTPStatus(code int) bool {
	switch code {
	case 408, 429, 500, 502, 503, 504:
		return true
	}
	return false
}

// IsTransient reports whether err is a transient oracle failure worth
// retrying. Anything else (malformed request, auth failure, empty
// response) must propagate immediately.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	// Explicitly classified errors (also used by test stubs)
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	// Caller deadline expiry mid-call counts as a timeout
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	// REST transport errors from the Google API client
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return transientHTTPStatus(gerr.Code)
	}

	// gRPC transport errors
	if st, ok := status.FromError(err); ok && st.Code() != codes.OK && st.Code() != codes.Unknown {
		switch st.Code() {
		case codes.Unavailable, codes.ResourceExhausted, codes.DeadlineExceeded, codes.Aborted, codes.Internal:
			return true
		default:
			return false
		}
	}

	// Raw network failures (connection reset, dial timeout)
	var nerr net.Error
	if errors.As(err, &nerr) {
		return true
	}

	return false
}

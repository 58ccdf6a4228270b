package server

import (
	"errors"
	"net/http"

	"github.com/jonathan/exam-grader/internal/backoff"
	"github.com/jonathan/exam-grader/internal/guard"
	"github.com/jonathan/exam-grader/internal/router"
)

// HTTPStatus returns the appropriate HTTP status code for a grading error
func HTTPStatus(err error) int {
	var missing *guard.MissingRequiredInputError
	if errors.As(err, &missing) {
		return http.StatusUnprocessableEntity
	}

	var ambiguous *router.AmbiguousClassificationError
	if errors.As(err, &ambiguous) {
		return http.StatusUnprocessableEntity
	}

	var unavailable *backoff.OracleUnavailableError
	if errors.As(err, &unavailable) {
		return http.StatusServiceUnavailable
	}

	return http.StatusInternalServerError
}

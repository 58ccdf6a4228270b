// Package backoff wraps calls to the external scoring oracle with
// bounded retry and exponential delay on transient failures.
package backoff

import (
	"context"
	"fmt"
	"time"

	"github.com/jonathan/exam-grader/internal/llm"
)

// Defaults match the retry configuration of the grading service.
const (
	DefaultMaxRetries   = 3
	DefaultInitialDelay = 2 * time.Second
)

// OracleUnavailableError is surfaced when transient failures exhaust
// the retry budget or the caller's deadline expires while retrying.
type OracleUnavailableError struct {
	Attempts int
	Cause    error
}

func (e *OracleUnavailableError) Error() string {
	return fmt.Sprintf("oracle unavailable after %d attempt(s): %v", e.Attempts, e.Cause)
}

func (e *OracleUnavailableError) Unwrap() error {
	return e.Cause
}

// Operation is one attempt against the scoring oracle.
type Operation func(ctx context.Context) (string, error)

// Executor retries an Operation on transient failures with exponential
// backoff: delay = InitialDelay * 2^(attempt-1), attempt counted from 1.
// Waits are context-aware, so one pipeline's backoff never blocks
// other concurrent pipelines and an overall deadline cuts retrying
// short regardless of attempts remaining.
type Executor struct {
	MaxRetries   int
	InitialDelay time.Duration
	// Classify reports whether an error is transient. Defaults to
	// llm.IsTransient.
	Classify func(error) bool
	// sleep is replaceable in tests to avoid real delays
	sleep func(ctx context.Context, d time.Duration) error
}

// NewExecutor returns an Executor with the default retry budget.
func NewExecutor() *Executor {
	return &Executor{
		MaxRetries:   DefaultMaxRetries,
		InitialDelay: DefaultInitialDelay,
	}
}

// Execute runs op, retrying transient failures up to MaxRetries total
// attempts. Non-transient failures propagate immediately without
// retry. Exhausting the budget returns OracleUnavailableError wrapping
// the last transient failure.
func (e *Executor) Execute(ctx context.Context, op Operation) (string, error) {
	maxRetries := e.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	initialDelay := e.InitialDelay
	if initialDelay <= 0 {
		initialDelay = DefaultInitialDelay
	}
	classify := e.Classify
	if classify == nil {
		classify = llm.IsTransient
	}
	sleep := e.sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		if !classify(err) {
			// Fail fast on semantic errors; retrying cannot help.
			return "", err
		}
		lastErr = err
		if attempt == maxRetries {
			break
		}

		delay := initialDelay * (1 << (attempt - 1))
		if err := sleep(ctx, delay); err != nil {
			// Deadline or cancellation while waiting: stop retrying.
			return "", &OracleUnavailableError{Attempts: attempt, Cause: lastErr}
		}
	}

	return "", &OracleUnavailableError{Attempts: maxRetries, Cause: lastErr}
}

// sleepCtx waits for d, or returns early with the context's error.
// Only the calling goroutine is suspended.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

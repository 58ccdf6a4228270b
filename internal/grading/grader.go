// Package grading orchestrates exam evaluation: prompt assembly,
// oracle invocation through the backoff executor, response parsing and
// validation, and deterministic score aggregation.
package grading

import (
	"context"
	"fmt"

	"github.com/jonathan/exam-grader/internal/audio"
	"github.com/jonathan/exam-grader/internal/backoff"
	"github.com/jonathan/exam-grader/internal/guard"
	"github.com/jonathan/exam-grader/internal/llm"
	"github.com/jonathan/exam-grader/internal/router"
	"github.com/jonathan/exam-grader/internal/types"
)

// gradingSeed is the fixed sampling seed requested for text-exam
// grading calls, for providers that honor seeding.
const gradingSeed int32 = 42

// Options configures a Grader. Client is required; Analyzer is
// required only when vc_pitch submissions will be graded.
type Options struct {
	Client   llm.Client
	Executor *backoff.Executor
	Analyzer *audio.Analyzer
}

// Grader runs the grading pipeline for one submission at a time.
// Instances are safe for concurrent use; each Evaluate call is an
// independent pipeline.
type Grader struct {
	client   llm.Client
	executor *backoff.Executor
	analyzer *audio.Analyzer
	router   *router.Router
	guard    *guard.Guard
}

// New creates a Grader.
func New(opts Options) (*Grader, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("oracle client is required")
	}
	executor := opts.Executor
	if executor == nil {
		executor = backoff.NewExecutor()
	}
	return &Grader{
		client:   opts.Client,
		executor: executor,
		analyzer: opts.Analyzer,
		router:   router.New(opts.Client),
		guard:    guard.New(opts.Client),
	}, nil
}

// Evaluate grades one submission. The returned record is in state
// Graded or ParseFailure on a nil error; every error return carries a
// record in state Errored (possibly without a resolved exam type).
// ParseFailure is not an error: the raw oracle text is preserved on
// the record so the caller can retry, surface, or log it.
func (g *Grader) Evaluate(ctx context.Context, sub *types.Submission) (*types.ExamEvaluation, error) {
	eval := &types.ExamEvaluation{Status: types.StatusUnstarted}

	// Malformed input fails before any oracle call is made.
	if err := sub.Validate(); err != nil {
		eval.Status = types.StatusErrored
		return eval, fmt.Errorf("invalid submission: %w", err)
	}

	examType, err := g.router.Route(ctx, sub)
	if err != nil {
		eval.Status = types.StatusErrored
		return eval, err
	}
	eval.ExamType = examType

	var metrics *types.AudioMetrics
	if examType == types.ExamVCPitch {
		if err := g.guard.RequireAudio(ctx, sub); err != nil {
			eval.Status = types.StatusErrored
			return eval, err
		}

		eval.Status = types.StatusExtracting
		if g.analyzer == nil {
			eval.Status = types.StatusErrored
			return eval, fmt.Errorf("no audio analyzer configured for vc_pitch grading")
		}
		metrics, err = g.analyzer.Analyze(ctx, sub.AudioRef)
		if err != nil {
			eval.Status = types.StatusErrored
			return eval, err
		}
		eval.AudioMetrics = metrics
	}

	eval.Status = types.StatusPrompting
	systemPrompt, userPrompt := BuildPrompt(examType, sub, metrics)

	eval.Status = types.StatusAwaitingOracle
	opts := completeOptionsFor(examType)
	raw, err := g.executor.Execute(ctx, func(ctx context.Context) (string, error) {
		return g.client.Complete(ctx, systemPrompt, userPrompt, opts)
	})
	if err != nil {
		eval.Status = types.StatusErrored
		return eval, err
	}

	eval.Status = types.StatusParsing
	parts, parseErr := ParseResponse(examType, raw)
	if parseErr != nil {
		eval.Status = types.StatusParseFailure
		eval.RawResponse = raw
		return eval, nil
	}

	eval.Parts = parts
	// The oracle's self-reported total is ignored: the aggregate is
	// recomputed from the parts so the invariant always holds.
	eval.OverallScore = types.MeanScore(parts)
	eval.Status = types.StatusGraded
	return eval, nil
}

// completeOptionsFor returns the oracle sampling options for a
// specialist: temperature 0 throughout, with a fixed seed for the
// text-exam graders.
func completeOptionsFor(examType types.ExamType) llm.CompleteOptions {
	opts := llm.CompleteOptions{
		Tier:        llm.TierAdvanced,
		Temperature: 0,
		JSONMode:    true,
	}
	if examType == types.ExamTechnical || examType == types.ExamNarrative {
		seed := gradingSeed
		opts.Seed = &seed
	}
	return opts
}

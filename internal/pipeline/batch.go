package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/exam-grader/internal/types"
)

// DefaultBatchConcurrency bounds concurrent gradings so one batch does
// not exhaust the oracle's rate limits.
const DefaultBatchConcurrency = 4

// BatchResult pairs a submission with its evaluation outcome. Err is
// set for submissions that could not be graded; the rest of the batch
// still completes.
type BatchResult struct {
	Index      int                   `json:"index"`
	Submission *types.Submission     `json:"submission"`
	Evaluation *types.ExamEvaluation `json:"evaluation,omitempty"`
	Err        error                 `json:"-"`
}

// LoadBatch reads submissions from a JSON file holding an array of
// submission objects.
func LoadBatch(path string) ([]types.Submission, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file %s: %w", path, err)
	}
	var subs []types.Submission
	if err := json.Unmarshal(data, &subs); err != nil {
		return nil, fmt.Errorf("failed to parse batch file %s: %w", path, err)
	}
	if len(subs) == 0 {
		return nil, fmt.Errorf("batch file %s contains no submissions", path)
	}
	return subs, nil
}

// RunBatch grades submissions concurrently, bounded by concurrency,
// and returns results in submission order. Individual grading failures
// are recorded per result; only context cancellation aborts the batch.
func RunBatch(ctx context.Context, evaluator Evaluator, subs []types.Submission, concurrency int, onProgress ProgressCallback) ([]BatchResult, error) {
	if evaluator == nil {
		return nil, fmt.Errorf("evaluator is required")
	}
	if concurrency <= 0 {
		concurrency = DefaultBatchConcurrency
	}

	results := make([]BatchResult, len(subs))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i := range subs {
		g.Go(func() error {
			sub := &subs[i]
			eval, err := evaluator.Evaluate(gCtx, sub)
			results[i] = BatchResult{Index: i, Submission: sub, Evaluation: eval, Err: err}

			if onProgress != nil {
				msg := fmt.Sprintf("Submission %d graded", i+1)
				if err != nil {
					msg = fmt.Sprintf("Submission %d failed: %v", i+1, err)
				}
				onProgress(ProgressEvent{Step: "batch", Message: msg, Content: results[i].Evaluation})
			}

			// A failed submission does not abort the batch; only
			// cancellation does.
			return gCtx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

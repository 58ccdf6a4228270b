package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jonathan/exam-grader/internal/backoff"
	"github.com/jonathan/exam-grader/internal/grading"
	"github.com/jonathan/exam-grader/internal/llm"
	"github.com/jonathan/exam-grader/internal/observability"
	"github.com/jonathan/exam-grader/internal/pipeline"
	"github.com/jonathan/exam-grader/internal/types"
	"github.com/spf13/cobra"
)

var batchCommand = &cobra.Command{
	Use:   "batch",
	Short: "Grade a batch of submissions concurrently",
	Long: `Reads a JSON array of submissions from a file and grades them with a bounded
worker pool. Individual failures are reported per submission and do not abort the batch.`,
	RunE: runBatchCmd,
}

var (
	batchInput       string
	batchOutput      string
	batchConcurrency int
	batchAPIKey      string
	batchVerbose     bool
)

func init() {
	batchCommand.Flags().StringVarP(&batchInput, "input", "i", "", "Path to a JSON file containing an array of submissions (required)")
	batchCommand.Flags().StringVarP(&batchOutput, "output", "o", "", "Write results as JSON to this file (stdout if omitted)")
	batchCommand.Flags().IntVar(&batchConcurrency, "concurrency", pipeline.DefaultBatchConcurrency, "Maximum submissions graded in parallel")
	batchCommand.Flags().StringVar(&batchAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	batchCommand.Flags().BoolVarP(&batchVerbose, "verbose", "v", false, "Print each evaluation as it completes")

	_ = batchCommand.MarkFlagRequired("input")

	rootCmd.AddCommand(batchCommand)
}

// batchOutputItem is the JSON shape written per submission. BatchResult keeps
// its error unexported from JSON, so the message is flattened here.
type batchOutputItem struct {
	Index      int                   `json:"index"`
	Evaluation *types.ExamEvaluation `json:"evaluation,omitempty"`
	Error      string                `json:"error,omitempty"`
}

func runBatchCmd(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	apiKey := batchAPIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}

	subs, err := pipeline.LoadBatch(batchInput)
	if err != nil {
		return err
	}

	client, err := llm.NewClient(ctx, nil, apiKey)
	if err != nil {
		return fmt.Errorf("failed to create oracle client: %w", err)
	}
	defer client.Close()

	grader, err := grading.New(grading.Options{
		Client:   client,
		Executor: backoff.NewExecutor(),
	})
	if err != nil {
		return err
	}

	var onProgress pipeline.ProgressCallback
	if batchVerbose {
		printer := observability.NewPrinter(os.Stdout)
		onProgress = func(event pipeline.ProgressEvent) {
			if eval, ok := event.Content.(*types.ExamEvaluation); ok && eval != nil {
				printer.PrintEvaluation(eval)
			}
		}
	}

	results, err := pipeline.RunBatch(ctx, grader, subs, batchConcurrency, onProgress)
	if err != nil {
		return err
	}

	items := make([]batchOutputItem, len(results))
	failed := 0
	for i, res := range results {
		items[i] = batchOutputItem{Index: res.Index, Evaluation: res.Evaluation}
		if res.Err != nil {
			items[i].Error = res.Err.Error()
			failed++
		}
	}

	encoded, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}

	if batchOutput != "" {
		if err := os.WriteFile(batchOutput, append(encoded, '\n'), 0644); err != nil {
			return fmt.Errorf("failed to write results: %w", err)
		}
		fmt.Printf("Graded %d submissions (%d failed), results written to %s\n", len(results), failed, batchOutput)
	} else {
		fmt.Println(string(encoded))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d submissions failed", failed, len(results))
	}
	return nil
}

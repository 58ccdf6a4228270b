// Package pipeline provides the high-level orchestration for grading
// a submission end to end: loading inputs, evaluating, persisting, and
// exporting results.
package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/jonathan/exam-grader/internal/audio"
	"github.com/jonathan/exam-grader/internal/backoff"
	"github.com/jonathan/exam-grader/internal/cache"
	"github.com/jonathan/exam-grader/internal/db"
	"github.com/jonathan/exam-grader/internal/export"
	"github.com/jonathan/exam-grader/internal/extract"
	"github.com/jonathan/exam-grader/internal/grading"
	"github.com/jonathan/exam-grader/internal/llm"
	"github.com/jonathan/exam-grader/internal/observability"
	"github.com/jonathan/exam-grader/internal/types"
)

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step    string `json:"step"`
	Message string `json:"message"`
	RunID   string `json:"run_id,omitempty"`
	Content any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// Evaluator grades one submission. Satisfied by grading.Grader;
// replaceable in tests and by embedding servers.
type Evaluator interface {
	Evaluate(ctx context.Context, sub *types.Submission) (*types.ExamEvaluation, error)
}

// RunOptions holds configuration for running the grading pipeline
type RunOptions struct {
	QuestionPath string
	ResponsePath string
	RubricPath   string
	AudioPath    string
	ExamType     string
	CacheDir     string
	OutputCSV    string
	OutputReport string
	APIKey       string
	DatabaseURL  string
	Verbose      bool
	OnProgress   ProgressCallback

	// Evaluator overrides the default oracle-backed grader. Required
	// when grading vc_pitch submissions, since waveform decoding and
	// transcription are deployment-provided collaborators.
	Evaluator Evaluator
	// Analyzer is wired into the default grader when Evaluator is not set.
	Analyzer *audio.Analyzer
}

// emitProgress calls the progress callback if configured
func emitProgress(opts *RunOptions, step, message string, content any) {
	if opts.OnProgress != nil {
		opts.OnProgress(ProgressEvent{Step: step, Message: message, Content: content})
	}
}

// RunPipeline grades one submission end to end and returns the
// evaluation record.
func RunPipeline(ctx context.Context, opts RunOptions) (*types.ExamEvaluation, error) {
	printer := observability.NewPrinter(os.Stdout)

	// Database persistence is best effort: a grading run proceeds
	// without it.
	var database *db.DB
	if opts.DatabaseURL != "" {
		var err error
		database, err = db.Connect(ctx, opts.DatabaseURL)
		if err != nil {
			fmt.Printf("Warning: Failed to connect to database: %v\n", err)
			fmt.Printf("Continuing without database persistence...\n")
			database = nil
		} else {
			defer database.Close()
			if opts.Verbose {
				fmt.Printf("[VERBOSE] Connected to database\n")
			}
		}
	}

	fmt.Printf("Step 1/4: Loading submission inputs...\n")
	sub, err := LoadSubmission(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("loading submission failed: %w", err)
	}
	if opts.Verbose {
		printer.PrintSubmission(sub)
	}
	emitProgress(&opts, "submission", "Loaded submission inputs", nil)

	evaluator := opts.Evaluator
	if evaluator == nil {
		evaluator, err = buildGrader(ctx, opts, database)
		if err != nil {
			return nil, err
		}
	}

	var runID uuid.UUID
	if database != nil {
		runID, err = database.CreateRun(ctx, sub.ExamType, sub.AudioRef)
		if err != nil {
			fmt.Printf("Warning: Failed to create database run: %v\n", err)
		} else if opts.Verbose {
			fmt.Printf("[VERBOSE] Created database run: %s\n", runID)
		}
	}

	fmt.Printf("Step 2/4: Grading submission...\n")
	eval, err := evaluator.Evaluate(ctx, sub)
	if database != nil && runID != uuid.Nil {
		if eval != nil {
			_ = database.SaveEvaluation(ctx, runID, eval)
			_ = database.CompleteRun(ctx, runID, runStatusFor(eval))
		} else {
			_ = database.CompleteRun(ctx, runID, db.RunStatusErrored)
		}
	}
	if err != nil {
		return eval, fmt.Errorf("grading failed: %w", err)
	}
	emitProgress(&opts, "evaluation", fmt.Sprintf("Graded as %s", eval.Status), eval)

	if opts.Verbose {
		printer.PrintAudioMetrics(eval.AudioMetrics)
		printer.PrintEvaluation(eval)
	}

	fmt.Printf("Step 3/4: Exporting results...\n")
	if err := exportResults(eval, opts); err != nil {
		return eval, err
	}

	fmt.Printf("Step 4/4: Done. Status: %s\n", eval.Status)
	return eval, nil
}

// LoadSubmission reads the input files named in opts into a Submission.
// Question, response, and rubric files are extracted to markdown text;
// the audio file is referenced by path, not read here.
func LoadSubmission(ctx context.Context, opts RunOptions) (*types.Submission, error) {
	extractor := &extract.DocumentExtractor{}

	question, err := extractor.Extract(ctx, opts.QuestionPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read question file: %w", err)
	}
	response, err := extractor.Extract(ctx, opts.ResponsePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read response file: %w", err)
	}

	rubric := ""
	if opts.RubricPath != "" {
		rubric, err = extractor.Extract(ctx, opts.RubricPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read rubric file: %w", err)
		}
	}

	sub := &types.Submission{
		ExamType:     types.ExamType(opts.ExamType),
		QuestionText: question,
		RubricText:   rubric,
		ResponseText: response,
		AudioRef:     opts.AudioPath,
	}
	if err := sub.Validate(); err != nil {
		return nil, err
	}
	return sub, nil
}

// buildGrader wires the default oracle-backed grader: Gemini client,
// retry executor, and a transcript cache backed by the database when
// connected, a cache directory when configured, or process memory.
func buildGrader(ctx context.Context, opts RunOptions, database *db.DB) (*grading.Grader, error) {
	client, err := llm.NewClient(ctx, nil, opts.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create oracle client: %w", err)
	}

	analyzer := opts.Analyzer
	if analyzer != nil && analyzer.Cache == nil {
		store, err := transcriptStore(opts, database)
		if err != nil {
			return nil, err
		}
		analyzer.Cache = cache.New(store)
	}

	return grading.New(grading.Options{
		Client:   client,
		Executor: backoff.NewExecutor(),
		Analyzer: analyzer,
	})
}

func transcriptStore(opts RunOptions, database *db.DB) (cache.Store, error) {
	if database != nil {
		return database.Transcripts(), nil
	}
	if opts.CacheDir != "" {
		store, err := cache.NewFileStore(opts.CacheDir)
		if err != nil {
			return nil, fmt.Errorf("failed to create transcript cache: %w", err)
		}
		return store, nil
	}
	return cache.NewMemoryStore(), nil
}

func runStatusFor(eval *types.ExamEvaluation) string {
	switch eval.Status {
	case types.StatusGraded:
		return db.RunStatusGraded
	case types.StatusParseFailure:
		return db.RunStatusParseFailure
	default:
		return db.RunStatusErrored
	}
}

// exportResults writes the CSV grade sheet and text report when output
// paths are configured.
func exportResults(eval *types.ExamEvaluation, opts RunOptions) error {
	if opts.OutputCSV != "" && eval.Graded() {
		f, err := os.Create(opts.OutputCSV)
		if err != nil {
			return fmt.Errorf("failed to create CSV output: %w", err)
		}
		defer f.Close()
		if err := export.WriteCSV(f, eval); err != nil {
			return err
		}
		fmt.Printf("Wrote grades to %s\n", opts.OutputCSV)
	}

	if opts.OutputReport != "" {
		f, err := os.Create(opts.OutputReport)
		if err != nil {
			return fmt.Errorf("failed to create report output: %w", err)
		}
		defer f.Close()
		if err := export.WriteReport(f, eval); err != nil {
			return err
		}
		fmt.Printf("Wrote report to %s\n", opts.OutputReport)
	}
	return nil
}

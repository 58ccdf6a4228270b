package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jonathan/exam-grader/internal/config"
	"github.com/jonathan/exam-grader/internal/pipeline"
	"github.com/spf13/cobra"
)

var gradeCommand = &cobra.Command{
	Use:   "grade",
	Short: "Grade a single exam submission end-to-end",
	Long: `Runs the full grading pipeline for one submission: extraction -> classification -> grading -> export.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	RunE: runGradeCmd,
}

var (
	gradeConfigPath  string
	gradeQuestion    string
	gradeResponse    string
	gradeRubric      string
	gradeAudio       string
	gradeExamType    string
	gradeCacheDir    string
	gradeOutputCSV   string
	gradeReport      string
	gradeAPIKey      string
	gradeDatabaseURL string
	gradeVerbose     bool
)

func init() {
	// Config file flag (processed first)
	gradeCommand.Flags().StringVar(&gradeConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	gradeCommand.Flags().StringVarP(&gradeQuestion, "question", "q", "", "Path to the exam question file")
	gradeCommand.Flags().StringVarP(&gradeResponse, "response", "r", "", "Path to the student response file")
	gradeCommand.Flags().StringVar(&gradeRubric, "rubric", "", "Path to the rubric file (optional)")
	gradeCommand.Flags().StringVar(&gradeAudio, "audio", "", "Path to the pitch recording (required for vc_pitch)")
	gradeCommand.Flags().StringVarP(&gradeExamType, "exam-type", "t", "", "Declared exam type: technical, narrative or vc_pitch (classified if omitted)")
	gradeCommand.Flags().StringVar(&gradeCacheDir, "cache-dir", "", "Directory for cached transcripts (in-memory if omitted)")
	gradeCommand.Flags().StringVar(&gradeOutputCSV, "csv", "", "Write scored parts to this CSV file")
	gradeCommand.Flags().StringVar(&gradeReport, "report", "", "Write a human-readable report to this file")
	gradeCommand.Flags().BoolVarP(&gradeVerbose, "verbose", "v", false, "Print detailed debug information")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	gradeCommand.Flags().StringVar(&gradeAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")

	// Database URL for run persistence
	gradeCommand.Flags().StringVar(&gradeDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(gradeCommand)
}

func runGradeCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	// Step 1: Load config file if provided
	var cfg config.Config
	if gradeConfigPath != "" {
		loadedCfg, err := config.LoadConfig(gradeConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if err := loadedCfg.Validate(); err != nil {
			return err
		}

		cfg = *loadedCfg
		if gradeVerbose {
			_, _ = fmt.Fprintf(os.Stdout, "Loaded config from: %s\n", gradeConfigPath)
		}
	}

	// Step 2: Apply CLI overrides (command-line args take priority)
	// Only override if the flag was explicitly set
	if cmd.Flags().Changed("question") {
		cfg.Question = gradeQuestion
	}
	if cmd.Flags().Changed("response") {
		cfg.Response = gradeResponse
	}
	if cmd.Flags().Changed("rubric") {
		cfg.Rubric = gradeRubric
	}
	if cmd.Flags().Changed("audio") {
		cfg.Audio = gradeAudio
	}
	if cmd.Flags().Changed("exam-type") {
		cfg.ExamType = gradeExamType
	}
	if cmd.Flags().Changed("cache-dir") {
		cfg.CacheDir = gradeCacheDir
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = gradeAPIKey
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = gradeDatabaseURL
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = gradeVerbose
	}

	// Step 3: Validate required fields
	if cfg.Question == "" {
		return fmt.Errorf("--question is required (via flag or config)")
	}
	if cfg.Response == "" {
		return fmt.Errorf("--response is required (via flag or config)")
	}

	// Step 4: API Key handling
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}

	// Step 5: Database URL handling (optional; runs are not persisted without it)
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	opts := pipeline.RunOptions{
		QuestionPath: cfg.Question,
		ResponsePath: cfg.Response,
		RubricPath:   cfg.Rubric,
		AudioPath:    cfg.Audio,
		ExamType:     cfg.ExamType,
		CacheDir:     cfg.CacheDir,
		OutputCSV:    gradeOutputCSV,
		OutputReport: gradeReport,
		APIKey:       cfg.APIKey,
		DatabaseURL:  cfg.DatabaseURL,
		Verbose:      cfg.Verbose,
	}

	_, err := pipeline.RunPipeline(ctx, opts)
	return err
}

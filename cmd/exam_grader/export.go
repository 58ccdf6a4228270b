package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/jonathan/exam-grader/internal/db"
	"github.com/jonathan/exam-grader/internal/export"
	"github.com/jonathan/exam-grader/internal/types"
	"github.com/spf13/cobra"
)

var exportCommand = &cobra.Command{
	Use:   "export",
	Short: "Export a stored evaluation to CSV or a text report",
	Long: `Loads a finished evaluation, either from a JSON file or from the database by
run ID, and writes it as CSV and/or a human-readable report.`,
	RunE: runExportCmd,
}

var (
	exportInput       string
	exportRunID       string
	exportCSV         string
	exportReport      string
	exportDatabaseURL string
)

func init() {
	exportCommand.Flags().StringVarP(&exportInput, "input", "i", "", "Path to an evaluation JSON file (mutually exclusive with --run)")
	exportCommand.Flags().StringVar(&exportRunID, "run", "", "Run ID to load from the database (mutually exclusive with --input)")
	exportCommand.Flags().StringVar(&exportCSV, "csv", "", "Write scored parts to this CSV file")
	exportCommand.Flags().StringVar(&exportReport, "report", "", "Write a human-readable report to this file")
	exportCommand.Flags().StringVar(&exportDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(exportCommand)
}

func runExportCmd(_ *cobra.Command, _ []string) error {
	if exportInput == "" && exportRunID == "" {
		return fmt.Errorf("either --input or --run must be provided")
	}
	if exportInput != "" && exportRunID != "" {
		return fmt.Errorf("--input and --run are mutually exclusive; provide only one")
	}
	if exportCSV == "" && exportReport == "" {
		return fmt.Errorf("at least one of --csv or --report must be provided")
	}

	eval, err := loadEvaluation(context.Background())
	if err != nil {
		return err
	}

	if exportCSV != "" {
		if err := writeTo(exportCSV, eval, export.WriteCSV); err != nil {
			return fmt.Errorf("failed to write CSV: %w", err)
		}
		fmt.Printf("CSV written to %s\n", exportCSV)
	}
	if exportReport != "" {
		if err := writeTo(exportReport, eval, export.WriteReport); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		fmt.Printf("Report written to %s\n", exportReport)
	}
	return nil
}

func loadEvaluation(ctx context.Context) (*types.ExamEvaluation, error) {
	if exportInput != "" {
		data, err := os.ReadFile(exportInput)
		if err != nil {
			return nil, fmt.Errorf("failed to read evaluation file: %w", err)
		}
		var eval types.ExamEvaluation
		if err := json.Unmarshal(data, &eval); err != nil {
			return nil, fmt.Errorf("failed to parse evaluation JSON: %w", err)
		}
		return &eval, nil
	}

	databaseURL := exportDatabaseURL
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable or --db-url flag is required with --run")
	}

	runID, err := uuid.Parse(exportRunID)
	if err != nil {
		return nil, fmt.Errorf("invalid run ID: %w", err)
	}

	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	eval, err := database.GetEvaluation(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load evaluation: %w", err)
	}
	if eval == nil {
		return nil, fmt.Errorf("no evaluation found for run %s", runID)
	}
	return eval, nil
}

func writeTo(path string, eval *types.ExamEvaluation, write func(io.Writer, *types.ExamEvaluation) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return write(f, eval)
}

// Package main provides the entry point for the exam grader CLI and API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "exam_grader",
	Short: "LLM-backed exam grading pipeline",
	Long:  "Exam grader classifies submissions by exam type, grades them against rubrics via an LLM oracle, and exports scored reports. Serves a REST API or runs one-shot from the command line.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

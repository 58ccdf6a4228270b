// Package export renders evaluations as CSV grade sheets and plain
// text reports.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/jonathan/exam-grader/internal/types"
)

// csvHeader matches the grade sheet layout consumers already ingest.
var csvHeader = []string{"Part", "Score", "Max Score", "Feedback"}

// WriteCSV writes one row per graded part, plus a trailing audio
// metrics row for pitch evaluations.
func WriteCSV(w io.Writer, eval *types.ExamEvaluation) error {
	if eval == nil {
		return fmt.Errorf("no evaluation to export")
	}
	if eval.Status != types.StatusGraded {
		return fmt.Errorf("evaluation is not graded (status %s)", eval.Status)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, part := range eval.Parts {
		row := []string{
			part.PartName,
			formatScore(part.Score),
			formatScore(part.MaxScore),
			part.Feedback,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row for %s: %w", part.PartName, err)
		}
	}

	if eval.AudioMetrics != nil {
		row := []string{"Audio Metrics", "", "", describeMetrics(eval.AudioMetrics)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write audio metrics row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func describeMetrics(m *types.AudioMetrics) string {
	return fmt.Sprintf("duration_seconds=%s words_per_minute=%s silence_ratio=%s",
		formatScore(m.DurationSeconds), formatScore(m.WordsPerMinute), formatScore(m.SilenceRatio))
}

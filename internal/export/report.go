package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/exam-grader/internal/types"
)

const (
	// reportWidth bounds the feedback column so reports stay readable
	// in a terminal or fixed-width page.
	reportWidth = 80
	feedbackCol = 24
)

// WriteReport renders a plain text grading report: a header, one line
// per part with score and wrapped feedback, and the overall score.
func WriteReport(w io.Writer, eval *types.ExamEvaluation) error {
	if eval == nil {
		return fmt.Errorf("no evaluation to export")
	}

	var sb strings.Builder
	sb.WriteString("Exam Grading Report\n")
	sb.WriteString(strings.Repeat("=", len("Exam Grading Report")) + "\n\n")
	sb.WriteString(fmt.Sprintf("Exam type: %s\n\n", eval.ExamType))

	if eval.Status == types.StatusParseFailure {
		sb.WriteString("The grader response could not be parsed. Raw response:\n\n")
		sb.WriteString(eval.RawResponse + "\n")
		_, err := io.WriteString(w, sb.String())
		return err
	}

	sb.WriteString(fmt.Sprintf("%-20s %8s   %s\n", "Part", "Score", "Feedback"))
	for _, part := range eval.Parts {
		score := fmt.Sprintf("%.1f/%.0f", part.Score, part.MaxScore)
		lines := wrap(strings.ReplaceAll(part.Feedback, "\n", " "), reportWidth-feedbackCol-12)
		first := ""
		if len(lines) > 0 {
			first = lines[0]
		}
		sb.WriteString(fmt.Sprintf("%-20s %8s   %s\n", part.PartName, score, first))
		for _, line := range lines[min(1, len(lines)):] {
			sb.WriteString(fmt.Sprintf("%-20s %8s   %s\n", "", "", line))
		}
	}

	if eval.AudioMetrics != nil {
		sb.WriteString("\nAudio metrics:\n")
		sb.WriteString(fmt.Sprintf("  Duration:       %.1f s\n", eval.AudioMetrics.DurationSeconds))
		sb.WriteString(fmt.Sprintf("  Pace:           %.1f WPM\n", eval.AudioMetrics.WordsPerMinute))
		sb.WriteString(fmt.Sprintf("  Silence ratio:  %.1f%%\n", eval.AudioMetrics.SilenceRatio*100))
	}

	sb.WriteString(fmt.Sprintf("\nOverall Score: %.2f\n", eval.OverallScore))

	_, err := io.WriteString(w, sb.String())
	return err
}

// wrap splits text into lines no longer than width, breaking on words.
func wrap(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if width < 1 {
		width = 1
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		if len(current)+1+len(word) > width {
			lines = append(lines, current)
			current = word
			continue
		}
		current += " " + word
	}
	return append(lines, current)
}

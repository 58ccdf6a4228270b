// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/exam-grader/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintSubmission outputs a human-readable summary of the submission
// about to be graded.
func (p *Printer) PrintSubmission(sub *types.Submission) {
	if sub == nil {
		return
	}

	var sb strings.Builder
	examType := string(sub.ExamType)
	if examType == "" {
		examType = "(to be classified)"
	}
	sb.WriteString(fmt.Sprintf("Exam type:  %s\n", examType))
	sb.WriteString(fmt.Sprintf("Question:   %d characters\n", len(sub.QuestionText)))
	sb.WriteString(fmt.Sprintf("Response:   %d characters\n", len(sub.ResponseText)))
	if sub.RubricText != "" {
		sb.WriteString("Rubric:     provided\n")
	} else {
		sb.WriteString("Rubric:     none\n")
	}
	if sub.HasAudio() {
		sb.WriteString(fmt.Sprintf("Audio:      %s", sub.AudioRef))
	} else {
		sb.WriteString("Audio:      none")
	}

	p.printBox("SUBMISSION", sb.String())
}

// PrintAudioMetrics outputs the delivery metrics computed for a pitch recording.
func (p *Printer) PrintAudioMetrics(metrics *types.AudioMetrics) {
	if metrics == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Duration:       %.1f s\n", metrics.DurationSeconds))
	sb.WriteString(fmt.Sprintf("Pace:           %.1f WPM\n", metrics.WordsPerMinute))
	sb.WriteString(fmt.Sprintf("Silence ratio:  %.1f%%\n", metrics.SilenceRatio*100))

	words := len(strings.Fields(metrics.Transcript))
	sb.WriteString(fmt.Sprintf("Transcript:     %d words", words))

	p.printBox("AUDIO METRICS", sb.String())
}

// PrintEvaluation outputs the graded parts with scores and feedback,
// or the raw oracle text when parsing failed.
func (p *Printer) PrintEvaluation(eval *types.ExamEvaluation) {
	if eval == nil {
		return
	}

	if eval.Status == types.StatusParseFailure {
		raw := eval.RawResponse
		if len(raw) > 200 {
			raw = raw[:197] + "..."
		}
		p.printBox("PARSE FAILURE", "The grader response could not be parsed:\n\n"+raw)
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Overall: %.2f\n\n", eval.OverallScore))

	count := min(len(eval.Parts), maxItemsToShow)
	for i := 0; i < count; i++ {
		part := eval.Parts[i]
		sb.WriteString(fmt.Sprintf("%s: %.1f / %.0f\n", part.PartName, part.Score, part.MaxScore))
		feedback := part.Feedback
		if len(feedback) > 50 {
			feedback = feedback[:47] + "..."
		}
		if feedback != "" {
			sb.WriteString(fmt.Sprintf("  %s\n", feedback))
		}
		if i < count-1 {
			sb.WriteString("\n")
		}
	}
	if len(eval.Parts) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more parts", len(eval.Parts)-maxItemsToShow))
	}

	p.printBox(fmt.Sprintf("EVALUATION (%s)", eval.ExamType), strings.TrimSuffix(sb.String(), "\n"))
}

// Package guard enforces the VC-pitch audio precondition before any
// grading spend: scoring depends on audio-derived metrics that do not
// exist without a recording.
package guard

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/exam-grader/internal/llm"
	"github.com/jonathan/exam-grader/internal/prompts"
	"github.com/jonathan/exam-grader/internal/types"
)

// MissingRequiredInputError means a submission lacks an input the
// selected specialist cannot grade without. This is a hard gate, not
// a warning.
type MissingRequiredInputError struct {
	Field     string
	Reasoning string
}

func (e *MissingRequiredInputError) Error() string {
	if e.Reasoning != "" {
		return fmt.Sprintf("missing required input %s: %s", e.Field, e.Reasoning)
	}
	return fmt.Sprintf("missing required input %s", e.Field)
}

// Guard verifies audio preconditions for vc_pitch submissions.
type Guard struct {
	client llm.Client
}

// New creates a Guard over the given check-oracle client.
func New(client llm.Client) *Guard {
	return &Guard{client: client}
}

// RequireAudio halts the pipeline when the submission carries no audio
// artifact. An absent audio reference fails locally before the check
// oracle is consulted, so no oracle call is ever made for it.
func (g *Guard) RequireAudio(ctx context.Context, sub *types.Submission) error {
	if !sub.HasAudio() {
		return &MissingRequiredInputError{
			Field:     "audio_ref",
			Reasoning: "vc_pitch submissions require an audio recording",
		}
	}

	check, err := g.CheckAudio(ctx, sub)
	if err != nil {
		return err
	}
	if !check.HasAudio {
		return &MissingRequiredInputError{Field: "audio_ref", Reasoning: check.Reasoning}
	}
	return nil
}

// CheckAudio asks the boolean check oracle whether the submitted
// inputs include a usable audio file, returning its answer and
// rationale.
func (g *Guard) CheckAudio(ctx context.Context, sub *types.Submission) (*types.AudioCheck, error) {
	template := prompts.MustGet("guard.json", "check-audio")
	prompt := prompts.Format(template, map[string]string{
		"Inputs": describeInputs(sub),
	})

	raw, err := g.client.Complete(ctx, "", prompt, llm.CompleteOptions{
		Tier:        llm.TierLite,
		Temperature: 0,
		JSONMode:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("audio check call failed: %w", err)
	}

	var check types.AudioCheck
	if err := json.Unmarshal([]byte(llm.CleanJSONBlock(raw)), &check); err != nil {
		return nil, fmt.Errorf("failed to parse audio check response: %w (content: %s)", err, raw)
	}
	return &check, nil
}

// describeInputs summarizes the submission's inputs for the check prompt.
func describeInputs(sub *types.Submission) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "- exam_type: %s\n", sub.ExamType)
	fmt.Fprintf(&sb, "- question_text: %d characters\n", len(sub.QuestionText))
	fmt.Fprintf(&sb, "- response_text: %d characters\n", len(sub.ResponseText))
	if sub.RubricText != "" {
		sb.WriteString("- rubric_text: provided\n")
	} else {
		sb.WriteString("- rubric_text: absent\n")
	}
	if sub.AudioRef != "" {
		fmt.Fprintf(&sb, "- audio file: %s\n", sub.AudioRef)
	} else {
		sb.WriteString("- audio file: none\n")
	}
	return sb.String()
}

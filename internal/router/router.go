// Package router decides which of the three specialist grading
// procedures handles a submission.
package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/exam-grader/internal/llm"
	"github.com/jonathan/exam-grader/internal/prompts"
	"github.com/jonathan/exam-grader/internal/types"
)

// AmbiguousClassificationError means the classifier's answer could not
// be resolved to exactly one recognized exam type.
type AmbiguousClassificationError struct {
	Answer  string
	Matched []types.ExamType
}

func (e *AmbiguousClassificationError) Error() string {
	if len(e.Matched) == 0 {
		return fmt.Sprintf("ambiguous classification: no recognized exam type in answer %q", e.Answer)
	}
	return fmt.Sprintf("ambiguous classification: answer %q names %d exam types", e.Answer, len(e.Matched))
}

// Router resolves submissions to exam types, using a lite-tier oracle
// call when no type was declared.
type Router struct {
	client llm.Client
}

// New creates a Router over the given oracle client.
func New(client llm.Client) *Router {
	return &Router{client: client}
}

// Route returns the exam type for a submission. A declared type wins;
// otherwise the classifier oracle decides. The result is always
// exactly one recognized type or an error, never a silent default.
func (r *Router) Route(ctx context.Context, sub *types.Submission) (types.ExamType, error) {
	if sub.ExamType != "" {
		if !sub.ExamType.Valid() {
			return "", fmt.Errorf("unknown exam_type %q", sub.ExamType)
		}
		return sub.ExamType, nil
	}

	template := prompts.MustGet("routing.json", "classify-exam-type")
	prompt := prompts.Format(template, map[string]string{
		"Question": sub.QuestionText,
		"Response": sub.ResponseText,
	})

	answer, err := r.client.Complete(ctx, "", prompt, llm.CompleteOptions{
		Tier:        llm.TierLite,
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("classification call failed: %w", err)
	}

	return ParseClassification(answer)
}

// ParseClassification maps a classifier answer to exactly one exam
// type. Matching is case-insensitive on the type literals; an answer
// naming zero or more than one type is ambiguous.
func ParseClassification(answer string) (types.ExamType, error) {
	normalized := strings.ToLower(strings.TrimSpace(answer))

	var matched []types.ExamType
	for _, examType := range types.AllExamTypes() {
		if strings.Contains(normalized, string(examType)) {
			matched = append(matched, examType)
		}
	}

	if len(matched) != 1 {
		return "", &AmbiguousClassificationError{Answer: answer, Matched: matched}
	}
	return matched[0], nil
}

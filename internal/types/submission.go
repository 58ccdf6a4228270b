// Package types provides type definitions for structured data used throughout the exam-grader system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ExamType identifies which specialist grading procedure handles a submission.
type ExamType string

// Supported exam types. There is deliberately no default: an unknown
// value is an error, not a silent fall-through to narrative.
const (
	ExamTechnical ExamType = "technical"
	ExamNarrative ExamType = "narrative"
	ExamVCPitch   ExamType = "vc_pitch"
)

// Valid reports whether t is one of the recognized exam types.
func (t ExamType) Valid() bool {
	switch t {
	case ExamTechnical, ExamNarrative, ExamVCPitch:
		return true
	}
	return false
}

// AllExamTypes returns the recognized exam types in a stable order.
func AllExamTypes() []ExamType {
	return []ExamType{ExamTechnical, ExamNarrative, ExamVCPitch}
}

// Submission represents one grading request. ExamType may be empty, in
// which case the router classifies the submission from its content.
type Submission struct {
	ExamType     ExamType `json:"exam_type,omitempty"`
	QuestionText string   `json:"question_text" validate:"required,min=1"`
	RubricText   string   `json:"rubric_text,omitempty"`
	ResponseText string   `json:"response_text" validate:"required,min=1"`
	AudioRef     string   `json:"audio_ref,omitempty"`
}

// HasAudio reports whether the submission carries an audio artifact reference.
func (s *Submission) HasAudio() bool {
	return s.AudioRef != ""
}

// Validate validates the Submission using the validator.
func (s *Submission) Validate() error {
	if s.ExamType != "" && !s.ExamType.Valid() {
		return fmt.Errorf("unknown exam_type %q", s.ExamType)
	}
	validate := validator.New()
	return validate.Struct(s)
}

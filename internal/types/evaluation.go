package types

import (
	"fmt"
	"math"
)

// ScoreTolerance is the floating-point tolerance used when checking
// that an overall score matches the aggregation of its parts.
const ScoreTolerance = 1e-6

// EvaluationStatus tracks the lifecycle of a grading request.
type EvaluationStatus string

// Evaluation lifecycle states. Graded and ParseFailure are both
// terminal "the oracle answered" states; export logic treats them
// differently.
const (
	StatusUnstarted      EvaluationStatus = "unstarted"
	StatusExtracting     EvaluationStatus = "extracting"
	StatusPrompting      EvaluationStatus = "prompting"
	StatusAwaitingOracle EvaluationStatus = "awaiting_oracle"
	StatusParsing        EvaluationStatus = "parsing"
	StatusGraded         EvaluationStatus = "graded"
	StatusParseFailure   EvaluationStatus = "parse_failure"
	StatusErrored        EvaluationStatus = "errored"
)

// AudioMetrics holds delivery metrics derived from a pitch recording.
// Immutable once computed; cached by audio source identity.
type AudioMetrics struct {
	DurationSeconds float64 `json:"duration_seconds"`
	WordsPerMinute  float64 `json:"words_per_minute"`
	SilenceRatio    float64 `json:"silence_ratio"`
	Transcript      string  `json:"transcript"`
}

// Validate checks the numeric invariants on audio metrics.
func (m *AudioMetrics) Validate() error {
	if m.DurationSeconds < 0 {
		return fmt.Errorf("duration_seconds must be non-negative, got %v", m.DurationSeconds)
	}
	if m.WordsPerMinute < 0 {
		return fmt.Errorf("words_per_minute must be non-negative, got %v", m.WordsPerMinute)
	}
	if m.SilenceRatio < 0 || m.SilenceRatio > 1 {
		return fmt.Errorf("silence_ratio must be in [0,1], got %v", m.SilenceRatio)
	}
	return nil
}

// PartEvaluation is the score and feedback for one graded part.
type PartEvaluation struct {
	PartName string  `json:"part_name"`
	Score    float64 `json:"score"`
	MaxScore float64 `json:"max_score"`
	Feedback string  `json:"feedback"`
}

// Validate checks the 0 <= score <= max_score invariant.
func (p *PartEvaluation) Validate() error {
	if p.Score < 0 || p.Score > p.MaxScore {
		return fmt.Errorf("part %q: score %v outside [0, %v]", p.PartName, p.Score, p.MaxScore)
	}
	return nil
}

// ExamEvaluation is the typed result of grading one submission.
type ExamEvaluation struct {
	ExamType     ExamType         `json:"exam_type"`
	OverallScore float64          `json:"overall_score"`
	Parts        []PartEvaluation `json:"parts"`
	AudioMetrics *AudioMetrics    `json:"audio_metrics,omitempty"`
	Status       EvaluationStatus `json:"status"`
	// RawResponse carries the unparseable oracle text when Status is
	// StatusParseFailure, for diagnostics. Empty otherwise.
	RawResponse string `json:"raw_response,omitempty"`
}

// Graded reports whether the evaluation completed with parsed scores.
func (e *ExamEvaluation) Graded() bool {
	return e.Status == StatusGraded
}

// MeanScore returns the mean of the part scores, the declared
// aggregation for overall_score. Zero parts yields zero.
func MeanScore(parts []PartEvaluation) float64 {
	if len(parts) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range parts {
		sum += p.Score
	}
	return sum / float64(len(parts))
}

// Validate checks part score bounds and that the overall score matches
// the mean of part scores within ScoreTolerance.
func (e *ExamEvaluation) Validate() error {
	if !e.ExamType.Valid() {
		return fmt.Errorf("unknown exam_type %q", e.ExamType)
	}
	if e.Status == StatusParseFailure {
		return nil
	}
	for i := range e.Parts {
		if err := e.Parts[i].Validate(); err != nil {
			return err
		}
	}
	if math.Abs(e.OverallScore-MeanScore(e.Parts)) > ScoreTolerance {
		return fmt.Errorf("overall_score %v does not match mean of parts %v", e.OverallScore, MeanScore(e.Parts))
	}
	if e.AudioMetrics != nil {
		if err := e.AudioMetrics.Validate(); err != nil {
			return err
		}
	}
	return nil
}

package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/exam-grader/internal/types"
)

// Run represents one grading run record
type Run struct {
	ID          uuid.UUID      `json:"id"`
	ExamType    types.ExamType `json:"exam_type"`
	AudioRef    string         `json:"audio_ref,omitempty"`
	Status      string         `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

// Run statuses persisted in grading_runs.status.
const (
	RunStatusRunning      = "running"
	RunStatusGraded       = "graded"
	RunStatusParseFailure = "parse_failure"
	RunStatusErrored      = "errored"
)

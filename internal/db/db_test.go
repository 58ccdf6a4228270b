package db

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/exam-grader/internal/types"
)

func TestRunStatusConstants(t *testing.T) {
	// Verify status constants are defined
	statuses := []string{
		RunStatusRunning,
		RunStatusGraded,
		RunStatusParseFailure,
		RunStatusErrored,
	}

	for _, status := range statuses {
		assert.NotEmpty(t, status, "status constant should not be empty")
	}
}

func TestRunType(t *testing.T) {
	// Verify Run struct can be instantiated
	run := Run{
		ExamType: types.ExamTechnical,
		AudioRef: "",
		Status:   RunStatusRunning,
	}

	assert.Equal(t, types.ExamTechnical, run.ExamType)
	assert.Equal(t, RunStatusRunning, run.Status)
	assert.Nil(t, run.CompletedAt)
}

func TestEvaluationRoundTrip(t *testing.T) {
	// This is a unit test that verifies the marshaling logic used by
	// SaveEvaluation and GetEvaluation.
	// Integration tests will verify database operations
	t.Run("round-trip graded evaluation", func(t *testing.T) {
		eval := &types.ExamEvaluation{
			ExamType: types.ExamTechnical,
			Status:   types.StatusGraded,
			Parts: []types.PartEvaluation{
				{PartName: "question_1", Score: 8, MaxScore: 10, Feedback: "Solid answer."},
			},
			OverallScore: 8,
		}
		jsonBytes, err := json.Marshal(eval)
		if err != nil {
			t.Fatalf("Failed to marshal evaluation: %v", err)
		}

		var result types.ExamEvaluation
		if err := json.Unmarshal(jsonBytes, &result); err != nil {
			t.Fatalf("Failed to unmarshal: %v", err)
		}

		if result.Status != types.StatusGraded {
			t.Errorf("Status = %q, want %q", result.Status, types.StatusGraded)
		}
		if len(result.Parts) != 1 {
			t.Errorf("Parts count = %d, want 1", len(result.Parts))
		}
		if result.OverallScore != 8 {
			t.Errorf("OverallScore = %v, want 8", result.OverallScore)
		}
	})

	t.Run("round-trip parse failure keeps raw response", func(t *testing.T) {
		eval := &types.ExamEvaluation{
			ExamType:    types.ExamNarrative,
			Status:      types.StatusParseFailure,
			RawResponse: "not a grade",
		}
		jsonBytes, err := json.Marshal(eval)
		if err != nil {
			t.Fatalf("Failed to marshal evaluation: %v", err)
		}

		var result types.ExamEvaluation
		if err := json.Unmarshal(jsonBytes, &result); err != nil {
			t.Fatalf("Failed to unmarshal: %v", err)
		}

		if result.RawResponse != "not a grade" {
			t.Errorf("RawResponse = %q, want 'not a grade'", result.RawResponse)
		}
	})
}

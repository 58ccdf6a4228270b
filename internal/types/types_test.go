package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExamTypeValid(t *testing.T) {
	for _, examType := range AllExamTypes() {
		assert.True(t, examType.Valid(), "expected %q to be valid", examType)
	}
	assert.False(t, ExamType("").Valid())
	assert.False(t, ExamType("oral").Valid())
	assert.False(t, ExamType("Technical").Valid(), "type literals are case-sensitive")
}

func TestSubmissionValidate(t *testing.T) {
	valid := &Submission{
		ExamType:     ExamTechnical,
		QuestionText: "Q",
		ResponseText: "A",
	}
	require.NoError(t, valid.Validate())

	undeclared := &Submission{QuestionText: "Q", ResponseText: "A"}
	require.NoError(t, undeclared.Validate(), "exam type is optional")

	assert.Error(t, (&Submission{ResponseText: "A"}).Validate())
	assert.Error(t, (&Submission{QuestionText: "Q"}).Validate())
	assert.Error(t, (&Submission{ExamType: "oral", QuestionText: "Q", ResponseText: "A"}).Validate())
}

func TestSubmissionHasAudio(t *testing.T) {
	assert.False(t, (&Submission{}).HasAudio())
	assert.True(t, (&Submission{AudioRef: "pitch.wav"}).HasAudio())
}

func TestMeanScore(t *testing.T) {
	assert.Zero(t, MeanScore(nil))
	parts := []PartEvaluation{
		{PartName: "a", Score: 7, MaxScore: 10},
		{PartName: "b", Score: 8, MaxScore: 10},
	}
	assert.InDelta(t, 7.5, MeanScore(parts), ScoreTolerance)
}

func TestPartEvaluationValidate(t *testing.T) {
	assert.NoError(t, (&PartEvaluation{PartName: "a", Score: 0, MaxScore: 10}).Validate())
	assert.NoError(t, (&PartEvaluation{PartName: "a", Score: 10, MaxScore: 10}).Validate())
	assert.Error(t, (&PartEvaluation{PartName: "a", Score: -1, MaxScore: 10}).Validate())
	assert.Error(t, (&PartEvaluation{PartName: "a", Score: 11, MaxScore: 10}).Validate())
}

func TestAudioMetricsValidate(t *testing.T) {
	valid := &AudioMetrics{DurationSeconds: 180, WordsPerMinute: 140, SilenceRatio: 0.08}
	require.NoError(t, valid.Validate())

	assert.Error(t, (&AudioMetrics{DurationSeconds: -1}).Validate())
	assert.Error(t, (&AudioMetrics{WordsPerMinute: -1}).Validate())
	assert.Error(t, (&AudioMetrics{SilenceRatio: 1.2}).Validate())
}

func TestExamEvaluationValidate(t *testing.T) {
	eval := &ExamEvaluation{
		ExamType:     ExamTechnical,
		OverallScore: 7.5,
		Parts: []PartEvaluation{
			{PartName: "question_1", Score: 7, MaxScore: 10},
			{PartName: "question_2", Score: 8, MaxScore: 10},
		},
		Status: StatusGraded,
	}
	require.NoError(t, eval.Validate())

	// A stale or self-reported aggregate is rejected.
	eval.OverallScore = 8.2
	assert.Error(t, eval.Validate())

	// Parse failures carry no scores to check.
	failure := &ExamEvaluation{
		ExamType:    ExamNarrative,
		Status:      StatusParseFailure,
		RawResponse: "not json",
	}
	assert.NoError(t, failure.Validate())
}

func TestExamEvaluationGraded(t *testing.T) {
	assert.True(t, (&ExamEvaluation{Status: StatusGraded}).Graded())
	assert.False(t, (&ExamEvaluation{Status: StatusParseFailure}).Graded())
}

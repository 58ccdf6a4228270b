package grading

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/exam-grader/internal/audio"
	"github.com/jonathan/exam-grader/internal/backoff"
	"github.com/jonathan/exam-grader/internal/guard"
	"github.com/jonathan/exam-grader/internal/llm"
	"github.com/jonathan/exam-grader/internal/router"
	"github.com/jonathan/exam-grader/internal/types"
)

// MockLLMClient implements llm.Client for testing
type MockLLMClient struct {
	CompleteFunc func(ctx context.Context, systemPrompt, userPrompt string, opts llm.CompleteOptions) (string, error)
	GetModelFunc func(tier llm.ModelTier) string
	CloseFunc    func() error

	calls atomic.Int64
}

func (m *MockLLMClient) Complete(ctx context.Context, systemPrompt, userPrompt string, opts llm.CompleteOptions) (string, error) {
	m.calls.Add(1)
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, systemPrompt, userPrompt, opts)
	}
	return "", nil
}

func (m *MockLLMClient) GetModel(tier llm.ModelTier) string {
	if m.GetModelFunc != nil {
		return m.GetModelFunc(tier)
	}
	return "mock-model"
}

func (m *MockLLMClient) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

func (m *MockLLMClient) Calls() int {
	return int(m.calls.Load())
}

type stubWaveform struct {
	wave *audio.Waveform
}

func (s *stubWaveform) Read(_ context.Context, _ string) (*audio.Waveform, error) {
	return s.wave, nil
}

type stubTranscriber struct {
	transcript string
}

func (s *stubTranscriber) Transcribe(_ context.Context, _ string) (string, error) {
	return s.transcript, nil
}

// fastExecutor keeps retry semantics but without multi-second waits.
func fastExecutor() *backoff.Executor {
	return &backoff.Executor{MaxRetries: backoff.DefaultMaxRetries, InitialDelay: time.Millisecond}
}

func newTestGrader(t *testing.T, client llm.Client, analyzer *audio.Analyzer) *Grader {
	t.Helper()
	g, err := New(Options{Client: client, Executor: fastExecutor(), Analyzer: analyzer})
	require.NoError(t, err)
	return g
}

func TestEvaluate_TechnicalSingleQuestion(t *testing.T) {
	var gradingOpts llm.CompleteOptions
	mockClient := &MockLLMClient{
		CompleteFunc: func(_ context.Context, _, _ string, opts llm.CompleteOptions) (string, error) {
			gradingOpts = opts
			return `{"question_1": {"score": 8, "feedback": "Correct approach, minor gaps."}, "total_score": 8}`, nil
		},
	}

	g := newTestGrader(t, mockClient, nil)
	eval, err := g.Evaluate(context.Background(), &types.Submission{
		ExamType:     types.ExamTechnical,
		QuestionText: "Explain how a hash table handles collisions.",
		ResponseText: "Chaining stores colliding entries in a per-bucket list.",
	})

	require.NoError(t, err)
	require.NotNil(t, eval)
	assert.Equal(t, types.StatusGraded, eval.Status)
	assert.Equal(t, types.ExamTechnical, eval.ExamType)
	require.Len(t, eval.Parts, 1)
	assert.Equal(t, "question_1", eval.Parts[0].PartName)
	assert.Equal(t, 8.0, eval.Parts[0].Score)
	assert.Equal(t, float64(DefaultMaxScore), eval.Parts[0].MaxScore)
	assert.Equal(t, 8.0, eval.OverallScore)
	assert.NoError(t, eval.Validate())

	// Grading calls are deterministic: temperature 0 with a fixed seed.
	assert.Equal(t, llm.TierAdvanced, gradingOpts.Tier)
	assert.Equal(t, float32(0), gradingOpts.Temperature)
	require.NotNil(t, gradingOpts.Seed)
	assert.Equal(t, int32(42), *gradingOpts.Seed)
	assert.True(t, gradingOpts.JSONMode)
	assert.Equal(t, 1, mockClient.Calls())
}

func TestEvaluate_MultiQuestionNaturalOrder(t *testing.T) {
	mockClient := &MockLLMClient{
		CompleteFunc: func(_ context.Context, _, _ string, _ llm.CompleteOptions) (string, error) {
			return `{
				"question_10": {"score": 4, "feedback": "Incomplete."},
				"question_2": {"score": 6, "feedback": "Mostly right."},
				"question_1": {"score": 8, "feedback": "Good."},
				"total_score": 99
			}`, nil
		},
	}

	g := newTestGrader(t, mockClient, nil)
	eval, err := g.Evaluate(context.Background(), &types.Submission{
		ExamType:     types.ExamNarrative,
		QuestionText: "Q1\nQ2\nQ10",
		ResponseText: "A1\nA2\nA10",
	})

	require.NoError(t, err)
	require.Len(t, eval.Parts, 3)
	assert.Equal(t, "question_1", eval.Parts[0].PartName)
	assert.Equal(t, "question_2", eval.Parts[1].PartName)
	assert.Equal(t, "question_10", eval.Parts[2].PartName)
	// The oracle's total_score of 99 is discarded and recomputed.
	assert.InDelta(t, 6.0, eval.OverallScore, types.ScoreTolerance)
}

func TestEvaluate_NonJSONIsParseFailureNotError(t *testing.T) {
	mockClient := &MockLLMClient{
		CompleteFunc: func(_ context.Context, _, _ string, _ llm.CompleteOptions) (string, error) {
			return "I could not produce a grade for this submission.", nil
		},
	}

	g := newTestGrader(t, mockClient, nil)
	eval, err := g.Evaluate(context.Background(), &types.Submission{
		ExamType:     types.ExamNarrative,
		QuestionText: "Describe a challenge you faced.",
		ResponseText: "Last year our team...",
	})

	require.NoError(t, err)
	require.NotNil(t, eval)
	assert.Equal(t, types.StatusParseFailure, eval.Status)
	assert.Equal(t, "I could not produce a grade for this submission.", eval.RawResponse)
	assert.Empty(t, eval.Parts)
	assert.Zero(t, eval.OverallScore)
	assert.Equal(t, 1, mockClient.Calls())
}

func TestEvaluate_MissingFeedbackIsParseFailure(t *testing.T) {
	raw := `{"question_1": {"score": 8}, "total_score": 8}`
	mockClient := &MockLLMClient{
		CompleteFunc: func(_ context.Context, _, _ string, _ llm.CompleteOptions) (string, error) {
			return raw, nil
		},
	}

	g := newTestGrader(t, mockClient, nil)
	eval, err := g.Evaluate(context.Background(), &types.Submission{
		ExamType:     types.ExamTechnical,
		QuestionText: "Explain CAP.",
		ResponseText: "Consistency, availability, partition tolerance.",
	})

	require.NoError(t, err)
	require.NotNil(t, eval)
	assert.Equal(t, types.StatusParseFailure, eval.Status)
	assert.Equal(t, raw, eval.RawResponse)
	assert.Empty(t, eval.Parts)
}

func TestEvaluate_ScoreOutOfRangeIsParseFailure(t *testing.T) {
	mockClient := &MockLLMClient{
		CompleteFunc: func(_ context.Context, _, _ string, _ llm.CompleteOptions) (string, error) {
			return `{"question_1": {"score": 14, "feedback": "Exceptional."}, "total_score": 14}`, nil
		},
	}

	g := newTestGrader(t, mockClient, nil)
	eval, err := g.Evaluate(context.Background(), &types.Submission{
		ExamType:     types.ExamTechnical,
		QuestionText: "Q",
		ResponseText: "A",
	})

	require.NoError(t, err)
	assert.Equal(t, types.StatusParseFailure, eval.Status)
	assert.Contains(t, eval.RawResponse, `"score": 14`)
}

func TestEvaluate_VCPitch(t *testing.T) {
	// 280 words over 120 seconds is 140 WPM; 90 voiced seconds of 120
	// leaves a silence ratio of exactly 0.25.
	transcript := strings.TrimSpace(strings.Repeat("word ", 280))
	analyzer := audio.NewAnalyzer(
		&stubWaveform{wave: &audio.Waveform{
			DurationSeconds: 120,
			VoicedIntervals: []audio.Interval{{Start: 0, End: 90}},
		}},
		&stubTranscriber{transcript: transcript},
		nil,
	)

	var gradingPrompt string
	mockClient := &MockLLMClient{
		CompleteFunc: func(_ context.Context, _, userPrompt string, opts llm.CompleteOptions) (string, error) {
			if opts.Tier == llm.TierLite {
				return `{"has_audio": true, "reasoning": "An audio file is listed."}`, nil
			}
			gradingPrompt = userPrompt
			return `{"Problem": 7, "Market": 6, "Solution": 8, "Delivery": 9, "Feedback": "Clear narrative, strong close."}`, nil
		},
	}

	g := newTestGrader(t, mockClient, analyzer)
	eval, err := g.Evaluate(context.Background(), &types.Submission{
		ExamType:     types.ExamVCPitch,
		QuestionText: "Pitch your startup.",
		ResponseText: "See recording.",
		AudioRef:     "pitch.wav",
	})

	require.NoError(t, err)
	assert.Equal(t, types.StatusGraded, eval.Status)

	require.NotNil(t, eval.AudioMetrics)
	assert.Equal(t, 120.0, eval.AudioMetrics.DurationSeconds)
	assert.Equal(t, 140.0, eval.AudioMetrics.WordsPerMinute)
	assert.Equal(t, 0.25, eval.AudioMetrics.SilenceRatio)

	// The computed numbers reach the specialist verbatim.
	assert.Contains(t, gradingPrompt, "140")
	assert.Contains(t, gradingPrompt, "0.25")
	assert.Contains(t, gradingPrompt, transcript)

	require.Len(t, eval.Parts, 4)
	assert.Equal(t, "Problem", eval.Parts[0].PartName)
	assert.Equal(t, "Market", eval.Parts[1].PartName)
	assert.Equal(t, "Solution", eval.Parts[2].PartName)
	assert.Equal(t, "Delivery", eval.Parts[3].PartName)
	for _, part := range eval.Parts {
		assert.Equal(t, "Clear narrative, strong close.", part.Feedback)
	}
	assert.InDelta(t, 7.5, eval.OverallScore, types.ScoreTolerance)
	assert.NoError(t, eval.Validate())
}

func TestEvaluate_VCPitchMissingAudioSkipsOracle(t *testing.T) {
	mockClient := &MockLLMClient{}

	g := newTestGrader(t, mockClient, nil)
	eval, err := g.Evaluate(context.Background(), &types.Submission{
		ExamType:     types.ExamVCPitch,
		QuestionText: "Pitch your startup.",
		ResponseText: "See recording.",
	})

	require.Error(t, err)
	var missing *guard.MissingRequiredInputError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "audio_ref", missing.Field)
	assert.Equal(t, types.StatusErrored, eval.Status)
	assert.Equal(t, 0, mockClient.Calls())
}

func TestEvaluate_AmbiguousClassification(t *testing.T) {
	mockClient := &MockLLMClient{
		CompleteFunc: func(_ context.Context, _, _ string, _ llm.CompleteOptions) (string, error) {
			return "It reads as technical but could also be narrative.", nil
		},
	}

	g := newTestGrader(t, mockClient, nil)
	eval, err := g.Evaluate(context.Background(), &types.Submission{
		QuestionText: "Walk me through your design.",
		ResponseText: "First I considered...",
	})

	require.Error(t, err)
	var ambiguous *router.AmbiguousClassificationError
	require.ErrorAs(t, err, &ambiguous)
	assert.Equal(t, types.StatusErrored, eval.Status)
	// Only the classifier ran; no grading call was spent.
	assert.Equal(t, 1, mockClient.Calls())
}

func TestEvaluate_RetriesTransientOracleFailures(t *testing.T) {
	var attempts atomic.Int64
	mockClient := &MockLLMClient{
		CompleteFunc: func(_ context.Context, _, _ string, _ llm.CompleteOptions) (string, error) {
			if attempts.Add(1) <= 2 {
				return "", &llm.TransientError{Message: "rate limited"}
			}
			return `{"question_1": {"score": 5, "feedback": "Partial."}, "total_score": 5}`, nil
		},
	}

	g := newTestGrader(t, mockClient, nil)
	eval, err := g.Evaluate(context.Background(), &types.Submission{
		ExamType:     types.ExamTechnical,
		QuestionText: "Q",
		ResponseText: "A",
	})

	require.NoError(t, err)
	assert.Equal(t, types.StatusGraded, eval.Status)
	assert.Equal(t, int64(3), attempts.Load())
}

func TestEvaluate_InvalidSubmission(t *testing.T) {
	mockClient := &MockLLMClient{}

	g := newTestGrader(t, mockClient, nil)
	eval, err := g.Evaluate(context.Background(), &types.Submission{
		ResponseText: "An answer without a question.",
	})

	require.Error(t, err)
	assert.Equal(t, types.StatusErrored, eval.Status)
	assert.Equal(t, 0, mockClient.Calls())
}

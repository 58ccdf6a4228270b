package router

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/exam-grader/internal/llm"
	"github.com/jonathan/exam-grader/internal/types"
)

// MockLLMClient implements llm.Client for testing
type MockLLMClient struct {
	CompleteFunc func(ctx context.Context, systemPrompt, userPrompt string, opts llm.CompleteOptions) (string, error)

	calls int
}

func (m *MockLLMClient) Complete(ctx context.Context, systemPrompt, userPrompt string, opts llm.CompleteOptions) (string, error) {
	m.calls++
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, systemPrompt, userPrompt, opts)
	}
	return "", nil
}

func (m *MockLLMClient) GetModel(_ llm.ModelTier) string { return "mock-model" }

func (m *MockLLMClient) Close() error { return nil }

func TestRoute_DeclaredTypeSkipsClassifier(t *testing.T) {
	mockClient := &MockLLMClient{}
	r := New(mockClient)

	examType, err := r.Route(context.Background(), &types.Submission{
		ExamType:     types.ExamVCPitch,
		QuestionText: "Pitch your startup.",
		ResponseText: "See recording.",
	})

	require.NoError(t, err)
	assert.Equal(t, types.ExamVCPitch, examType)
	assert.Equal(t, 0, mockClient.calls)
}

func TestRoute_DeclaredUnknownType(t *testing.T) {
	mockClient := &MockLLMClient{}
	r := New(mockClient)

	_, err := r.Route(context.Background(), &types.Submission{
		ExamType:     "oral",
		QuestionText: "Q",
		ResponseText: "A",
	})

	require.Error(t, err)
	assert.Equal(t, 0, mockClient.calls)
}

func TestRoute_ClassifiesWhenUndeclared(t *testing.T) {
	var seenOpts llm.CompleteOptions
	var seenPrompt string
	mockClient := &MockLLMClient{
		CompleteFunc: func(_ context.Context, _, userPrompt string, opts llm.CompleteOptions) (string, error) {
			seenOpts = opts
			seenPrompt = userPrompt
			return "technical", nil
		},
	}
	r := New(mockClient)

	examType, err := r.Route(context.Background(), &types.Submission{
		QuestionText: "Implement a queue with two stacks.",
		ResponseText: "Push onto the in-stack...",
	})

	require.NoError(t, err)
	assert.Equal(t, types.ExamTechnical, examType)
	assert.Equal(t, llm.TierLite, seenOpts.Tier)
	assert.Equal(t, float32(0), seenOpts.Temperature)
	assert.Contains(t, seenPrompt, "Implement a queue with two stacks.")
}

func TestRoute_ClassifierError(t *testing.T) {
	mockClient := &MockLLMClient{
		CompleteFunc: func(_ context.Context, _, _ string, _ llm.CompleteOptions) (string, error) {
			return "", errors.New("oracle down")
		},
	}
	r := New(mockClient)

	_, err := r.Route(context.Background(), &types.Submission{
		QuestionText: "Q",
		ResponseText: "A",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "classification call failed")
}

func TestParseClassification(t *testing.T) {
	tests := []struct {
		name    string
		answer  string
		want    types.ExamType
		wantErr bool
	}{
		{name: "exact", answer: "technical", want: types.ExamTechnical},
		{name: "uppercase", answer: "NARRATIVE", want: types.ExamNarrative},
		{name: "surrounded by prose", answer: "This is a vc_pitch submission.", want: types.ExamVCPitch},
		{name: "whitespace", answer: "  technical\n", want: types.ExamTechnical},
		{name: "no match", answer: "essay", wantErr: true},
		{name: "two types named", answer: "technical or narrative", wantErr: true},
		{name: "empty", answer: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseClassification(tt.answer)
			if tt.wantErr {
				require.Error(t, err)
				var ambiguous *AmbiguousClassificationError
				assert.ErrorAs(t, err, &ambiguous)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

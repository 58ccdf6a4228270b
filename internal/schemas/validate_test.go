package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateJSONString_Valid(t *testing.T) {
	doc := `{"Problem": 8, "Market": 7, "Solution": 9, "Delivery": 6, "Feedback": "tighten the market sizing"}`
	assert.NoError(t, ValidateJSONString(VCPitchResponseSchema(), doc))
}

func TestValidateJSONString_MissingKey(t *testing.T) {
	doc := `{"Problem": 8, "Market": 7, "Solution": 9, "Feedback": "ok"}`
	err := ValidateJSONString(VCPitchResponseSchema(), doc)
	require.Error(t, err)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.NotEmpty(t, validationErr.Errors)
}

func TestValidateJSONString_ScoreOutOfRange(t *testing.T) {
	doc := `{"Problem": 14, "Market": 7, "Solution": 9, "Delivery": 6, "Feedback": "ok"}`
	err := ValidateJSONString(VCPitchResponseSchema(), doc)
	assert.Error(t, err)
}

func TestValidateJSONString_ExtraKeyRejected(t *testing.T) {
	doc := `{"Problem": 8, "Market": 7, "Solution": 9, "Delivery": 6, "Feedback": "ok", "Bonus": 1}`
	err := ValidateJSONString(VCPitchResponseSchema(), doc)
	assert.Error(t, err)
}

func TestValidateJSONString_MalformedDocument(t *testing.T) {
	err := ValidateJSONString(VCPitchResponseSchema(), "not json")
	require.Error(t, err)

	var loadErr *SchemaLoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestQuestionMapSchema_Valid(t *testing.T) {
	doc := `{"question_1": {"score": 8, "feedback": "ok"}, "total_score": 8}`
	assert.NoError(t, ValidateJSONString(QuestionMapResponseSchema(), doc))
}

func TestQuestionMapSchema_MissingFeedback(t *testing.T) {
	doc := `{"question_1": {"score": 8}}`
	err := ValidateJSONString(QuestionMapResponseSchema(), doc)
	assert.Error(t, err)
}

func TestQuestionMapSchema_UnknownKeyRejected(t *testing.T) {
	doc := `{"summary": {"score": 8, "feedback": "ok"}}`
	err := ValidateJSONString(QuestionMapResponseSchema(), doc)
	assert.Error(t, err)
}

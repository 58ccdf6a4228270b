package grading

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/jonathan/exam-grader/internal/schemas"
	"github.com/jonathan/exam-grader/internal/types"
)

// DefaultMaxScore is the scale every grading prompt instructs the
// specialist to score against.
const DefaultMaxScore = 10

// totalScoreKey is the specialist's self-reported aggregate in
// question-map responses. It is stripped during parsing; the pipeline
// recomputes the aggregate itself.
const totalScoreKey = "total_score"

// ParseResponse validates and decodes an oracle grading response into
// part evaluations. A non-nil error means the response could not be
// used and the submission should be recorded as a parse failure.
func ParseResponse(examType types.ExamType, raw string) ([]types.PartEvaluation, error) {
	if examType == types.ExamVCPitch {
		return parseVCPitch(raw)
	}
	return parseQuestionMap(raw)
}

// questionEntry is one per-question object in a technical or
// narrative grading response.
type questionEntry struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// parseQuestionMap validates a technical or narrative response of the
// shape {"question_1": {"score": ..., "feedback": ...}, ...,
// "total_score": ...} against its JSON schema and decodes it.
// Question keys become parts in natural order.
func parseQuestionMap(raw string) ([]types.PartEvaluation, error) {
	if err := schemas.ValidateJSONString(schemas.QuestionMapResponseSchema(), raw); err != nil {
		return nil, err
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w", err)
	}
	delete(payload, totalScoreKey)
	if len(payload) == 0 {
		return nil, fmt.Errorf("response contains no question entries")
	}

	names := make([]string, 0, len(payload))
	for name := range payload {
		names = append(names, name)
	}
	sortNatural(names)

	parts := make([]types.PartEvaluation, 0, len(names))
	for _, name := range names {
		var entry questionEntry
		if err := json.Unmarshal(payload[name], &entry); err != nil {
			return nil, fmt.Errorf("entry %q is malformed: %w", name, err)
		}
		part := types.PartEvaluation{
			PartName: name,
			Score:    entry.Score,
			MaxScore: DefaultMaxScore,
			Feedback: entry.Feedback,
		}
		if err := part.Validate(); err != nil {
			return nil, fmt.Errorf("entry %q: %w", name, err)
		}
		parts = append(parts, part)
	}
	return parts, nil
}

// vcPitchResponse mirrors the pitch grading contract.
type vcPitchResponse struct {
	Problem  float64 `json:"Problem"`
	Market   float64 `json:"Market"`
	Solution float64 `json:"Solution"`
	Delivery float64 `json:"Delivery"`
	Feedback string  `json:"Feedback"`
}

// parseVCPitch validates a pitch response against its JSON schema and
// decodes it into the four fixed rubric parts. The feedback narrative
// covers the pitch as a whole, so it is carried on every part.
func parseVCPitch(raw string) ([]types.PartEvaluation, error) {
	if err := schemas.ValidateJSONString(schemas.VCPitchResponseSchema(), raw); err != nil {
		return nil, err
	}
	var resp vcPitchResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("pitch response is malformed: %w", err)
	}
	return []types.PartEvaluation{
		{PartName: "Problem", Score: resp.Problem, MaxScore: DefaultMaxScore, Feedback: resp.Feedback},
		{PartName: "Market", Score: resp.Market, MaxScore: DefaultMaxScore, Feedback: resp.Feedback},
		{PartName: "Solution", Score: resp.Solution, MaxScore: DefaultMaxScore, Feedback: resp.Feedback},
		{PartName: "Delivery", Score: resp.Delivery, MaxScore: DefaultMaxScore, Feedback: resp.Feedback},
	}, nil
}

var trailingDigits = regexp.MustCompile(`^(.*?)(\d+)$`)

// sortNatural orders names so question_2 sorts before question_10.
// Names without a numeric suffix fall back to lexicographic order.
func sortNatural(names []string) {
	sort.Slice(names, func(i, j int) bool {
		pi, ni, oki := splitNumericSuffix(names[i])
		pj, nj, okj := splitNumericSuffix(names[j])
		if oki && okj && pi == pj {
			return ni < nj
		}
		return names[i] < names[j]
	})
}

func splitNumericSuffix(name string) (prefix string, n int, ok bool) {
	m := trailingDigits.FindStringSubmatch(name)
	if m == nil {
		return name, 0, false
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return name, 0, false
	}
	return m[1], n, true
}

package grading

import (
	"strconv"

	"github.com/jonathan/exam-grader/internal/prompts"
	"github.com/jonathan/exam-grader/internal/types"
)

// gradingPromptsFile holds the specialist grading prompt templates.
const gradingPromptsFile = "grading.json"

// noRubricPlaceholder is substituted when a technical exam arrives
// without a rubric. Narrative exams switch to a dedicated prompt
// variant instead.
const noRubricPlaceholder = "No rubric provided."

// BuildPrompt assembles the system and user prompts for a grading
// call. Audio metrics are interpolated verbatim, not rounded, so the
// specialist sees exactly the numbers the analyzer computed.
func BuildPrompt(examType types.ExamType, sub *types.Submission, metrics *types.AudioMetrics) (system, user string) {
	switch examType {
	case types.ExamVCPitch:
		data := map[string]string{
			"Transcript":      "",
			"WPM":             "0",
			"SilenceRatio":    "0",
			"DurationMinutes": "0",
		}
		if metrics != nil {
			data["Transcript"] = metrics.Transcript
			data["WPM"] = formatNumber(metrics.WordsPerMinute)
			data["SilenceRatio"] = formatNumber(metrics.SilenceRatio)
			data["DurationMinutes"] = formatNumber(metrics.DurationSeconds / 60)
		}
		system = prompts.MustGet(gradingPromptsFile, "vc-pitch-system")
		user = prompts.Format(prompts.MustGet(gradingPromptsFile, "vc-pitch-user"), data)

	case types.ExamNarrative:
		if sub.RubricText == "" {
			system = prompts.MustGet(gradingPromptsFile, "narrative-no-rubric-system")
			user = prompts.Format(prompts.MustGet(gradingPromptsFile, "narrative-no-rubric-user"), map[string]string{
				"Questions": sub.QuestionText,
				"Responses": sub.ResponseText,
			})
			return system, user
		}
		system = prompts.MustGet(gradingPromptsFile, "narrative-with-rubric-system")
		user = prompts.Format(prompts.MustGet(gradingPromptsFile, "narrative-with-rubric-user"), map[string]string{
			"Rubric":    sub.RubricText,
			"Questions": sub.QuestionText,
			"Responses": sub.ResponseText,
		})

	default:
		rubric := sub.RubricText
		if rubric == "" {
			rubric = noRubricPlaceholder
		}
		system = prompts.MustGet(gradingPromptsFile, "technical-system")
		user = prompts.Format(prompts.MustGet(gradingPromptsFile, "technical-user"), map[string]string{
			"RubricMarkdown": rubric,
			"Questions":      sub.QuestionText,
			"Responses":      sub.ResponseText,
		})
	}
	return system, user
}

// formatNumber renders a float with the shortest representation that
// round-trips, so 140 stays "140" and 0.08 stays "0.08".
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

package grading

import "fmt"

// ValidationError reports the first answer that blocks a submission.
type ValidationError struct {
	QuestionID string
	Prompt     string
	Score      float64
}

// Label is the question prompt, or its id when the prompt is unknown.
func (e *ValidationError) Label() string {
	if e.Prompt != "" {
		return e.Prompt
	}
	return e.QuestionID
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Invalid score for question: \"%s\". Scores must be non-negative integers.", e.Label())
}

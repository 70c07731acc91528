package models

import "time"

// SubmissionStatus tracks where an applicant's attempt is in the grading flow.
type SubmissionStatus string

const (
	SubmissionStatusStarted   SubmissionStatus = "started"
	SubmissionStatusCompleted SubmissionStatus = "completed"
	SubmissionStatusGraded    SubmissionStatus = "graded"
	SubmissionStatusSubmitted SubmissionStatus = "submitted"
)

// Submission is an applicant's attempt at a job assignment, as returned by the backend.
// The backend populates assignmentId with the full assignment definition.
type Submission struct {
	ID            string           `json:"_id"`
	ApplicationID string           `json:"applicationId"`
	Assignment    Assignment       `json:"assignmentId"`
	Answers       []Answer         `json:"answers"`
	GraderNotes   string           `json:"graderNotes,omitempty"`
	Status        SubmissionStatus `json:"status"`
	TotalScore    *float64         `json:"totalScore,omitempty"`
	CreatedAt     *time.Time       `json:"createdAt,omitempty"`
	UpdatedAt     *time.Time       `json:"updatedAt,omitempty"`
}

// Answer is the applicant's response to one question plus any prior grading hints.
type Answer struct {
	QuestionID       string   `json:"questionId"`
	Answer           string   `json:"answer"`
	ManualScore      *float64 `json:"manualScore,omitempty"`
	Notes            string   `json:"notes,omitempty"`
	AIJustification  string   `json:"aiJustification,omitempty"`
	AISuggestedScore *float64 `json:"aiSuggestedScore,omitempty"`
}

// IsGraded reports whether the backend already holds a final grade.
func (s Submission) IsGraded() bool {
	return s.Status == SubmissionStatusGraded
}

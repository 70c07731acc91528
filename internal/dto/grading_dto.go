package dto

import (
	"time"

	"github.com/noah-isme/orbit-admin-api/internal/grading"
	"github.com/noah-isme/orbit-admin-api/internal/models"
)

// GradingAnswerView joins one draft answer with the question and the
// applicant's original response so a grader can see everything at once.
type GradingAnswerView struct {
	QuestionID       string             `json:"questionId"`
	Prompt           string             `json:"prompt"`
	SectionTitle     string             `json:"sectionTitle"`
	SectionType      models.SectionType `json:"sectionType"`
	MaxPoints        int                `json:"maxPoints"`
	Locked           bool               `json:"locked"`
	Answer           string             `json:"answer"`
	CorrectAnswer    string             `json:"correctAnswer,omitempty"`
	ModelAnswer      string             `json:"modelAnswer,omitempty"`
	AIJustification  string             `json:"aiJustification,omitempty"`
	AISuggestedScore *float64           `json:"aiSuggestedScore,omitempty"`
	ManualScore      float64            `json:"manualScore"`
	Notes            string             `json:"notes"`
}

// GradingSessionResponse is the full grading screen state.
type GradingSessionResponse struct {
	ApplicationID      string                  `json:"applicationId"`
	SubmissionID       string                  `json:"submissionId"`
	Status             models.SubmissionStatus `json:"status"`
	AssignmentTitle    string                  `json:"assignmentTitle"`
	PassingScore       float64                 `json:"passingScore"`
	MaxScore           int                     `json:"maxScore"`
	TotalScore         int                     `json:"totalScore"`
	AlreadyGraded      bool                    `json:"alreadyGraded"`
	Answers            []GradingAnswerView     `json:"answers"`
	GraderNotes        string                  `json:"graderNotes"`
	DroppedQuestionIDs []string                `json:"droppedQuestionIds"`
	OpenedAt           time.Time               `json:"openedAt"`
	UpdatedAt          time.Time               `json:"updatedAt"`
}

// GradingAnswerUpdateRequest edits one answer. ManualScore accepts a JSON
// number or numeric text typed into a number field.
type GradingAnswerUpdateRequest struct {
	ManualScore interface{} `json:"manualScore"`
	Notes       *string     `json:"notes" validate:"omitempty,max=5000"`
}

// GraderNotesRequest replaces the overall grader notes.
type GraderNotesRequest struct {
	GraderNotes string `json:"graderNotes" validate:"max=10000"`
}

// GradingSubmitResponse reports the outcome of a submitted grade.
type GradingSubmitResponse struct {
	ApplicationID string          `json:"applicationId"`
	TotalScore    int             `json:"totalScore"`
	Payload       grading.Payload `json:"payload"`
	Message       string          `json:"message"`
}

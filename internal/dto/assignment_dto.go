package dto

import (
	"github.com/noah-isme/orbit-admin-api/internal/models"
)

// AssignmentUpsertRequest is the typed editor payload for saving an assignment.
type AssignmentUpsertRequest struct {
	Title        string           `json:"title" validate:"required"`
	PassingScore *float64         `json:"passingScore" validate:"omitempty,gte=0,lte=100"`
	Sections     []models.Section `json:"sections" validate:"required,min=1"`
}

// ToModel converts the request into an assignment, applying the default passing score.
func (r AssignmentUpsertRequest) ToModel(jobID string) models.Assignment {
	passing := float64(models.DefaultPassingScore)
	if r.PassingScore != nil {
		passing = *r.PassingScore
	}
	return models.Assignment{
		JobID:        jobID,
		Title:        r.Title,
		PassingScore: passing,
		Sections:     r.Sections,
	}
}

// AssignmentResponse wraps an assignment together with derived totals.
type AssignmentResponse struct {
	Exists        bool              `json:"exists"`
	Assignment    models.Assignment `json:"assignment"`
	QuestionCount int               `json:"questionCount"`
	MaxScore      int               `json:"maxScore"`
}

// NewAssignmentResponse converts a model into a DTO.
func NewAssignmentResponse(assignment models.Assignment, exists bool) AssignmentResponse {
	if assignment.Sections == nil {
		assignment.Sections = []models.Section{}
	}
	return AssignmentResponse{
		Exists:        exists,
		Assignment:    assignment,
		QuestionCount: assignment.QuestionCount(),
		MaxScore:      assignment.MaxScore(),
	}
}

// AssignmentSaveResponse reports whether the save created or updated the record.
type AssignmentSaveResponse struct {
	AssignmentResponse
	Created bool `json:"created"`
}

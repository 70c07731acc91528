package models

import "time"

// SectionType enumerates the question formats an assignment section can hold.
type SectionType string

const (
	SectionTypeMultipleChoice SectionType = "multiple-choice"
	SectionTypeShortAnswer    SectionType = "short-answer"
	SectionTypePractical      SectionType = "practical"
	SectionTypeRoleplay       SectionType = "roleplay"
)

// SectionTypes lists every supported section type in display order.
var SectionTypes = []SectionType{
	SectionTypeMultipleChoice,
	SectionTypeShortAnswer,
	SectionTypePractical,
	SectionTypeRoleplay,
}

// Valid reports whether the section type is one of the supported formats.
func (t SectionType) Valid() bool {
	for _, known := range SectionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// IsMultipleChoice reports whether answers of this type are scored by correctness.
func (t SectionType) IsMultipleChoice() bool {
	return t == SectionTypeMultipleChoice
}

// DefaultPassingScore mirrors the authoring form default for new assignments.
const DefaultPassingScore = 85

// Assignment is the screening test attached to a job.
type Assignment struct {
	ID           string     `json:"_id,omitempty"`
	JobID        string     `json:"jobId,omitempty"`
	Title        string     `json:"title"`
	PassingScore float64    `json:"passingScore"`
	Sections     []Section  `json:"sections"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
}

// Section groups questions that share a type and a per-question point value.
type Section struct {
	Title             string      `json:"title"`
	Type              SectionType `json:"type"`
	PointsPerQuestion int         `json:"pointsPerQuestion"`
	Questions         []Question  `json:"questions"`
}

// Question is a single prompt inside a section.
type Question struct {
	ID            string   `json:"id"`
	Prompt        string   `json:"prompt"`
	Options       []Option `json:"options,omitempty"`
	CorrectAnswer string   `json:"correctAnswer,omitempty"`
	ModelAnswer   string   `json:"modelAnswer,omitempty"`
}

// Option is one selectable choice of a multiple-choice question.
type Option struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// QuestionCount returns the number of questions across all sections.
func (a Assignment) QuestionCount() int {
	total := 0
	for _, section := range a.Sections {
		total += len(section.Questions)
	}
	return total
}

// MaxScore returns the score obtained when every question earns full points.
func (a Assignment) MaxScore() int {
	total := 0
	for _, section := range a.Sections {
		total += section.PointsPerQuestion * len(section.Questions)
	}
	return total
}

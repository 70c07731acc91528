package models

import "time"

// JobType enumerates the engagement types offered on a job posting.
type JobType string

const (
	JobTypeFullTime   JobType = "Full-time"
	JobTypePartTime   JobType = "Part-time"
	JobTypeInternship JobType = "Internship"
)

// LocationType enumerates where the work happens.
type LocationType string

const (
	LocationRemote LocationType = "Remote"
	LocationHybrid LocationType = "Hybrid"
	LocationOnSite LocationType = "On-site"
)

// Job is a posting managed by hiring managers.
type Job struct {
	ID                  string       `json:"_id"`
	Title               string       `json:"title"`
	Domain              string       `json:"domain"`
	Description         string       `json:"description"`
	DetailedDescription string       `json:"detailedDescription,omitempty"`
	Skills              []string     `json:"skills"`
	Location            LocationType `json:"location"`
	MinPay              *float64     `json:"minPay,omitempty"`
	MaxPay              *float64     `json:"maxPay,omitempty"`
	JobType             JobType      `json:"jobType"`
	WhoCanApply         string       `json:"whoCanApply,omitempty"`
	CreatedAt           *time.Time   `json:"createdAt,omitempty"`
	UpdatedAt           *time.Time   `json:"updatedAt,omitempty"`
}

// JobApplication links an applicant to a job together with assignment progress.
type JobApplication struct {
	ID               string           `json:"_id"`
	Name             string           `json:"name,omitempty"`
	Email            string           `json:"email,omitempty"`
	Status           string           `json:"status,omitempty"`
	SubmissionStatus SubmissionStatus `json:"submissionStatus,omitempty"`
	Score            *float64         `json:"score,omitempty"`
	AppliedAt        *time.Time       `json:"appliedAt,omitempty"`
}

// JobWithApplicants is the backend view of a job and everyone who applied.
type JobWithApplicants struct {
	Job        Job              `json:"job"`
	Applicants []JobApplication `json:"applicants"`
}

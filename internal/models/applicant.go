package models

import "time"

// ApplicationStatus tracks a counsellor or agent through onboarding.
type ApplicationStatus string

const (
	ApplicationStatusApplied      ApplicationStatus = "applied"
	ApplicationStatusInterviewing ApplicationStatus = "interviewing"
	ApplicationStatusHired        ApplicationStatus = "hired"
	ApplicationStatusRejected     ApplicationStatus = "rejected"
)

// ApplicantKind distinguishes the two applicant pools reviewed by admins.
type ApplicantKind string

const (
	ApplicantKindCounsellor ApplicantKind = "counsellor"
	ApplicantKindAgent      ApplicantKind = "agent"
)

// Applicant is a counsellor or agent profile under review.
type Applicant struct {
	ID                string            `json:"_id"`
	Name              string            `json:"name"`
	Email             string            `json:"email"`
	ApplicationStatus ApplicationStatus `json:"applicationStatus"`
	IsVerified        bool              `json:"isVerified"`
	CreatedAt         time.Time         `json:"createdAt"`
}

// Pagination mirrors the backend pagination envelope.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// ApplicantPage is one page of applicants.
type ApplicantPage struct {
	Data       []Applicant `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

package dto

import (
	"github.com/noah-isme/orbit-admin-api/internal/models"
)

// Default paging for applicant lists.
const (
	DefaultApplicantPage  = 1
	DefaultApplicantLimit = 10
	MaxApplicantLimit     = 100
)

// ApplicantListRequest pages through counsellors or agents.
type ApplicantListRequest struct {
	Page   int    `validate:"gte=0"`
	Limit  int    `validate:"gte=0"`
	Search string `validate:"max=200"`
}

// ApplicationStatusRequest moves an applicant to a new onboarding stage.
type ApplicationStatusRequest struct {
	ApplicationStatus models.ApplicationStatus `json:"applicationStatus" validate:"required,oneof=applied interviewing hired rejected"`
}

// VerificationRequest toggles an applicant's verified flag.
type VerificationRequest struct {
	IsVerified *bool `json:"isVerified" validate:"required"`
}

// EmailUpdateRequest changes an applicant's contact address.
type EmailUpdateRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

// ApplicantListResponse is one page of applicants.
type ApplicantListResponse struct {
	Items      []models.Applicant `json:"items"`
	Pagination models.Pagination  `json:"pagination"`
}

// MessageResponse carries a backend confirmation message.
type MessageResponse struct {
	Message string `json:"message"`
}

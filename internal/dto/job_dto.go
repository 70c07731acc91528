package dto

import (
	"github.com/noah-isme/orbit-admin-api/internal/models"
)

// JobCreateRequest is the admin payload for publishing a job.
type JobCreateRequest struct {
	Title               string              `json:"title" validate:"required,min=3,max=200"`
	Domain              string              `json:"domain" validate:"required,max=100"`
	Description         string              `json:"description" validate:"required,min=10,max=5000"`
	DetailedDescription string              `json:"detailedDescription" validate:"omitempty,max=20000"`
	Skills              []string            `json:"skills" validate:"omitempty,max=50,dive,required,max=60"`
	Location            models.LocationType `json:"location" validate:"required,oneof=Remote Hybrid On-site"`
	MinPay              *float64            `json:"minPay" validate:"omitempty,gte=0"`
	MaxPay              *float64            `json:"maxPay" validate:"omitempty,gte=0"`
	JobType             models.JobType      `json:"jobType" validate:"required,oneof=Full-time Part-time Internship"`
	WhoCanApply         string              `json:"whoCanApply" validate:"omitempty,max=1000"`
}

// JobListResponse wraps the job list with cache provenance.
type JobListResponse struct {
	Items    []models.Job `json:"items"`
	CacheHit bool         `json:"cache_hit"`
}

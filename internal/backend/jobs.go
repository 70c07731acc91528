package backend

import (
	"context"
	"net/http"

	"github.com/noah-isme/orbit-admin-api/internal/models"
)

// JobInput is the body accepted by the backend when creating a job.
type JobInput struct {
	Title               string              `json:"title"`
	Domain              string              `json:"domain"`
	Description         string              `json:"description"`
	DetailedDescription string              `json:"detailedDescription,omitempty"`
	Skills              []string            `json:"skills"`
	Location            models.LocationType `json:"location"`
	MinPay              *float64            `json:"minPay,omitempty"`
	MaxPay              *float64            `json:"maxPay,omitempty"`
	JobType             models.JobType      `json:"jobType"`
	WhoCanApply         string              `json:"whoCanApply,omitempty"`
}

// ListJobs returns every job visible to the caller.
func (c *Client) ListJobs(ctx context.Context, token string) ([]models.Job, error) {
	jobs := make([]models.Job, 0)
	err := c.call(ctx, request{
		operation: "jobs.list",
		base:      c.baseURL,
		method:    http.MethodGet,
		path:      "/jobs",
		token:     token,
		fallback:  "Failed to fetch jobs",
	}, &jobs)
	return jobs, err
}

// CreateJob creates a job posting.
func (c *Client) CreateJob(ctx context.Context, token string, input JobInput) (models.Job, error) {
	var job models.Job
	err := c.call(ctx, request{
		operation: "jobs.create",
		base:      c.baseURL,
		method:    http.MethodPost,
		path:      "/jobs",
		token:     token,
		body:      input,
		fallback:  "Failed to create job",
	}, &job)
	return job, err
}

// DeleteJob removes a job and returns the backend's confirmation message.
// Empty bodies, such as 204 replies, are accepted.
func (c *Client) DeleteJob(ctx context.Context, token, jobID string) (string, error) {
	payload, err := c.send(ctx, request{
		operation: "jobs.delete",
		base:      c.baseURL,
		method:    http.MethodDelete,
		path:      "/jobs/" + escape(jobID),
		token:     token,
		fallback:  "Failed to delete job",
	})
	if err != nil {
		return "", err
	}
	return messageFrom(payload, "Job deleted successfully"), nil
}

// JobApplicants returns a job together with its applications.
func (c *Client) JobApplicants(ctx context.Context, token, jobID string) (models.JobWithApplicants, error) {
	var result models.JobWithApplicants
	err := c.call(ctx, request{
		operation: "jobs.applicants",
		base:      c.baseURL,
		method:    http.MethodGet,
		path:      "/jobs/" + escape(jobID) + "/applicants",
		token:     token,
		fallback:  "Failed to fetch job applicants",
	}, &result)
	return result, err
}

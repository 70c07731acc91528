package backend

import (
	"context"
	"net/http"

	"github.com/noah-isme/orbit-admin-api/internal/grading"
	"github.com/noah-isme/orbit-admin-api/internal/models"
)

// GetAssignment returns the assignment attached to a job. found is false when
// the job has no assignment yet.
func (c *Client) GetAssignment(ctx context.Context, token, jobID string) (assignment models.Assignment, found bool, err error) {
	payload, err := c.send(ctx, request{
		operation: "assignments.get",
		base:      c.assignmentBaseURL,
		method:    http.MethodGet,
		path:      "/jobs/" + escape(jobID),
		token:     token,
		fallback:  "Failed to fetch assignment",
	})
	if err != nil {
		if IsStatus(err, http.StatusNotFound) {
			return models.Assignment{}, false, nil
		}
		return models.Assignment{}, false, err
	}

	var decoded *models.Assignment
	if err := decodeData(payload, &decoded); err != nil {
		return models.Assignment{}, false, err
	}
	if decoded == nil {
		return models.Assignment{}, false, nil
	}
	return *decoded, true, nil
}

// CreateAssignment attaches a new assignment to a job.
func (c *Client) CreateAssignment(ctx context.Context, token, jobID string, assignment models.Assignment) (models.Assignment, error) {
	return c.writeAssignment(ctx, "assignments.create", http.MethodPost, token, jobID, assignment, "Failed to create assignment")
}

// UpdateAssignment replaces the assignment attached to a job.
func (c *Client) UpdateAssignment(ctx context.Context, token, jobID string, assignment models.Assignment) (models.Assignment, error) {
	return c.writeAssignment(ctx, "assignments.update", http.MethodPut, token, jobID, assignment, "Failed to update assignment")
}

func (c *Client) writeAssignment(ctx context.Context, operation, method, token, jobID string, assignment models.Assignment, fallback string) (models.Assignment, error) {
	body := struct {
		Title        string           `json:"title"`
		PassingScore float64          `json:"passingScore"`
		Sections     []models.Section `json:"sections"`
	}{
		Title:        assignment.Title,
		PassingScore: assignment.PassingScore,
		Sections:     assignment.Sections,
	}

	saved := assignment
	err := c.call(ctx, request{
		operation: operation,
		base:      c.assignmentBaseURL,
		method:    method,
		path:      "/jobs/" + escape(jobID),
		token:     token,
		body:      body,
		fallback:  fallback,
	}, &saved)
	return saved, err
}

// GetSubmission fetches the submission for an application, including the full
// assignment definition.
func (c *Client) GetSubmission(ctx context.Context, token, applicationID string) (models.Submission, error) {
	var submission models.Submission
	err := c.call(ctx, request{
		operation: "submissions.get",
		base:      c.assignmentBaseURL,
		method:    http.MethodGet,
		path:      "/submissions/" + escape(applicationID),
		token:     token,
		fallback:  "Failed to fetch submission",
	}, &submission)
	return submission, err
}

// GradeSubmission stores the final grade for an application's submission.
func (c *Client) GradeSubmission(ctx context.Context, token, applicationID string, payload grading.Payload) (string, error) {
	body, err := c.send(ctx, request{
		operation: "submissions.grade",
		base:      c.assignmentBaseURL,
		method:    http.MethodPost,
		path:      "/submissions/" + escape(applicationID) + "/grade",
		token:     token,
		body:      payload,
		fallback:  "Failed to grade submission",
	})
	if err != nil {
		return "", err
	}
	return messageFrom(body, "Submission graded successfully!"), nil
}

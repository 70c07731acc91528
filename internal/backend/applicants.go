package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/noah-isme/orbit-admin-api/internal/models"
)

// ApplicantQuery pages through counsellors or agents.
type ApplicantQuery struct {
	Page   int
	Limit  int
	Search string
}

type applicantRoutes struct {
	list         string
	item         string
	verification string
	label        string
}

var routesByKind = map[models.ApplicantKind]applicantRoutes{
	models.ApplicantKindCounsellor: {list: "/councellers", item: "/counceller/", verification: "verify", label: "councellers"},
	models.ApplicantKindAgent:      {list: "/agents", item: "/agent/", verification: "verification-status", label: "agents"},
}

func routesFor(kind models.ApplicantKind) (applicantRoutes, error) {
	routes, ok := routesByKind[kind]
	if !ok {
		return applicantRoutes{}, fmt.Errorf("unknown applicant kind %q", kind)
	}
	return routes, nil
}

// ListApplicants returns one page of counsellors or agents.
func (c *Client) ListApplicants(ctx context.Context, token string, kind models.ApplicantKind, query ApplicantQuery) (models.ApplicantPage, error) {
	routes, err := routesFor(kind)
	if err != nil {
		return models.ApplicantPage{}, err
	}

	values := url.Values{}
	values.Set("page", strconv.Itoa(query.Page))
	values.Set("limit", strconv.Itoa(query.Limit))
	values.Set("search", query.Search)

	payload, err := c.send(ctx, request{
		operation: "applicants.list",
		base:      c.baseURL,
		method:    http.MethodGet,
		path:      routes.list + "?" + values.Encode(),
		token:     token,
		fallback:  "Failed to fetch " + routes.label,
	})
	if err != nil {
		return models.ApplicantPage{}, err
	}

	// The list endpoint returns {data, pagination} at the top level, so it is
	// decoded directly rather than through the data envelope.
	page := models.ApplicantPage{Data: make([]models.Applicant, 0)}
	if err := decodeStrict(payload, &page); err != nil {
		return models.ApplicantPage{}, fmt.Errorf("decode applicants.list response: %w", err)
	}
	return page, nil
}

// SetApplicationStatus moves an applicant through onboarding.
func (c *Client) SetApplicationStatus(ctx context.Context, token string, kind models.ApplicantKind, id string, status models.ApplicationStatus) (models.Applicant, error) {
	routes, err := routesFor(kind)
	if err != nil {
		return models.Applicant{}, err
	}
	var applicant models.Applicant
	err = c.call(ctx, request{
		operation: "applicants.status",
		base:      c.baseURL,
		method:    http.MethodPatch,
		path:      routes.item + escape(id) + "/application-status",
		token:     token,
		body:      map[string]models.ApplicationStatus{"applicationStatus": status},
		fallback:  "Failed to update status",
	}, &applicant)
	return applicant, err
}

// SetVerification marks an applicant as verified or unverified.
func (c *Client) SetVerification(ctx context.Context, token string, kind models.ApplicantKind, id string, verified bool) (models.Applicant, error) {
	routes, err := routesFor(kind)
	if err != nil {
		return models.Applicant{}, err
	}
	var applicant models.Applicant
	err = c.call(ctx, request{
		operation: "applicants.verification",
		base:      c.baseURL,
		method:    http.MethodPatch,
		path:      routes.item + escape(id) + "/" + routes.verification,
		token:     token,
		body:      map[string]bool{"isVerified": verified},
		fallback:  "Failed to update status",
	}, &applicant)
	return applicant, err
}

// UpdateEmail changes the contact email of an applicant.
func (c *Client) UpdateEmail(ctx context.Context, token string, kind models.ApplicantKind, id, email string) (models.Applicant, error) {
	routes, err := routesFor(kind)
	if err != nil {
		return models.Applicant{}, err
	}
	var applicant models.Applicant
	err = c.call(ctx, request{
		operation: "applicants.email",
		base:      c.baseURL,
		method:    http.MethodPatch,
		path:      routes.item + escape(id) + "/email",
		token:     token,
		body:      map[string]string{"email": email},
		fallback:  "Failed to update email",
	}, &applicant)
	return applicant, err
}

// AssignCounsellors asks the backend to pair unassigned agents with counsellors.
func (c *Client) AssignCounsellors(ctx context.Context, token string) (string, error) {
	payload, err := c.send(ctx, request{
		operation: "agents.assign_counsellors",
		base:      c.baseURL,
		method:    http.MethodPost,
		path:      "/agents/assign-counsellors",
		token:     token,
		fallback:  "Failed to assign counsellors",
	})
	if err != nil {
		return "", err
	}
	return messageFrom(payload, "Counsellors assigned"), nil
}

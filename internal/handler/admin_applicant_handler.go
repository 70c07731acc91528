package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/orbit-admin-api/internal/dto"
	"github.com/noah-isme/orbit-admin-api/internal/middleware"
	"github.com/noah-isme/orbit-admin-api/internal/models"
	"github.com/noah-isme/orbit-admin-api/internal/service"
	"github.com/noah-isme/orbit-admin-api/internal/utils"
)

// AdminApplicantHandler exposes review endpoints for one applicant pool.
type AdminApplicantHandler struct {
	service service.ApplicantService
	kind    models.ApplicantKind
	logger  zerolog.Logger
}

// NewAdminApplicantHandler constructs a handler serving counsellors or agents.
func NewAdminApplicantHandler(service service.ApplicantService, kind models.ApplicantKind, logger zerolog.Logger) *AdminApplicantHandler {
	return &AdminApplicantHandler{
		service: service,
		kind:    kind,
		logger:  logger.With().Str("component", "admin_applicant_handler").Str("kind", string(kind)).Logger(),
	}
}

// Register attaches applicant routes to the router group.
func (h *AdminApplicantHandler) Register(router fiber.Router) {
	reviewers := middleware.AuthOptions{Roles: middleware.ApplicantsRoles}

	router.Get("/", middleware.WithAuth(h.list, reviewers))
	router.Patch("/:id/application-status", middleware.WithAuth(h.setStatus, reviewers))
	router.Patch("/:id/verification", middleware.WithAuth(h.setVerification, reviewers))
	router.Patch("/:id/email", middleware.WithAuth(h.updateEmail, reviewers))
	if h.kind == models.ApplicantKindAgent {
		router.Post("/assign-counsellors", middleware.WithAuth(h.assignCounsellors, reviewers))
	}
}

func (h *AdminApplicantHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	req := dto.ApplicantListRequest{Page: page, Limit: limit, Search: c.Query("search")}
	response, err := h.service.List(requestContext(c), activityActorFromContext(c), h.kind, req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list applicants")
	}

	return utils.OK(c, response.Items, string(h.kind)+"s", response.Pagination)
}

func (h *AdminApplicantHandler) setStatus(c *fiber.Ctx) error {
	var payload dto.ApplicationStatusRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	applicant, err := h.service.SetStatus(requestContext(c), activityActorFromContext(c), h.kind, c.Params("id"), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update status")
	}

	return utils.SendSuccess(c, "application status updated", applicant)
}

func (h *AdminApplicantHandler) setVerification(c *fiber.Ctx) error {
	var payload dto.VerificationRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	applicant, err := h.service.SetVerification(requestContext(c), activityActorFromContext(c), h.kind, c.Params("id"), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update verification")
	}

	return utils.SendSuccess(c, "verification updated", applicant)
}

func (h *AdminApplicantHandler) updateEmail(c *fiber.Ctx) error {
	var payload dto.EmailUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	applicant, err := h.service.UpdateEmail(requestContext(c), activityActorFromContext(c), h.kind, c.Params("id"), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update email")
	}

	return utils.SendSuccess(c, "email updated", applicant)
}

func (h *AdminApplicantHandler) assignCounsellors(c *fiber.Ctx) error {
	message, err := h.service.AssignCounsellors(requestContext(c), activityActorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to assign counsellors")
	}

	return utils.SendSuccess(c, message, dto.MessageResponse{Message: message})
}

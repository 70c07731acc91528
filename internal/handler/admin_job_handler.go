package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/orbit-admin-api/internal/dto"
	"github.com/noah-isme/orbit-admin-api/internal/middleware"
	"github.com/noah-isme/orbit-admin-api/internal/service"
	"github.com/noah-isme/orbit-admin-api/internal/utils"
)

// AdminJobHandler exposes job posting endpoints.
type AdminJobHandler struct {
	service service.JobService
	logger  zerolog.Logger
}

// NewAdminJobHandler constructs the handler.
func NewAdminJobHandler(service service.JobService, logger zerolog.Logger) *AdminJobHandler {
	return &AdminJobHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_job_handler").Logger(),
	}
}

// Register attaches job routes to the router group.
func (h *AdminJobHandler) Register(router fiber.Router) {
	hiring := middleware.AuthOptions{Roles: middleware.HiringRoles}

	router.Get("/", middleware.WithAuth(h.list, middleware.AuthOptions{RequireUser: true}))
	router.Post("/", middleware.WithAuth(h.create, hiring))
	router.Delete("/:id", middleware.WithAuth(h.delete, hiring))
	router.Get("/:id/applicants", middleware.WithAuth(h.applicants, hiring))
}

func (h *AdminJobHandler) list(c *fiber.Ctx) error {
	response, err := h.service.List(requestContext(c), activityActorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to list jobs")
	}

	return utils.OK(c, response.Items, "jobs", fiber.Map{"cache_hit": response.CacheHit, "count": len(response.Items)})
}

func (h *AdminJobHandler) create(c *fiber.Ctx) error {
	var payload dto.JobCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	job, err := h.service.Create(requestContext(c), activityActorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create job")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "job created", job)
}

func (h *AdminJobHandler) delete(c *fiber.Ctx) error {
	message, err := h.service.Delete(requestContext(c), activityActorFromContext(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to delete job")
	}

	return utils.SendSuccess(c, message, dto.MessageResponse{Message: message})
}

func (h *AdminJobHandler) applicants(c *fiber.Ctx) error {
	result, err := h.service.Applicants(requestContext(c), activityActorFromContext(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load job applicants")
	}

	return utils.SendSuccess(c, "job applicants", result)
}

package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/orbit-admin-api/internal/dto"
	"github.com/noah-isme/orbit-admin-api/internal/middleware"
	"github.com/noah-isme/orbit-admin-api/internal/service"
	"github.com/noah-isme/orbit-admin-api/internal/utils"
)

// AdminGradingHandler wires the grading session endpoints for hiring managers.
type AdminGradingHandler struct {
	service   service.GradingService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAdminGradingHandler constructs the handler.
func NewAdminGradingHandler(service service.GradingService, validator *validator.Validate, logger zerolog.Logger) *AdminGradingHandler {
	return &AdminGradingHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "admin_grading_handler").Logger(),
	}
}

// Register attaches grading endpoints to the applications router group.
func (h *AdminGradingHandler) Register(router fiber.Router) {
	hiring := middleware.AuthOptions{Roles: middleware.HiringRoles}

	router.Post("/:id/grading", middleware.WithAuth(h.open, hiring))
	router.Get("/:id/grading", middleware.WithAuth(h.get, hiring))
	router.Patch("/:id/grading/answers/:questionId", middleware.WithAuth(h.updateAnswer, hiring))
	router.Patch("/:id/grading/notes", middleware.WithAuth(h.updateNotes, hiring))
	router.Post("/:id/grading/submit", middleware.WithAuth(h.submit, hiring))
	router.Delete("/:id/grading", middleware.WithAuth(h.discard, hiring))
}

func (h *AdminGradingHandler) open(c *fiber.Ctx) error {
	session, err := h.service.Open(requestContext(c), activityActorFromContext(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to open grading session")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "grading session opened", session)
}

func (h *AdminGradingHandler) get(c *fiber.Ctx) error {
	session, err := h.service.Get(requestContext(c), activityActorFromContext(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load grading session")
	}

	return utils.SendSuccess(c, "grading session", session)
}

func (h *AdminGradingHandler) updateAnswer(c *fiber.Ctx) error {
	var payload dto.GradingAnswerUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(payload); err != nil {
		return respondError(c, h.logger, err, "invalid payload")
	}

	session, err := h.service.UpdateAnswer(requestContext(c), activityActorFromContext(c), c.Params("id"), c.Params("questionId"), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update answer")
	}

	return utils.SendSuccess(c, "answer updated", session)
}

func (h *AdminGradingHandler) updateNotes(c *fiber.Ctx) error {
	var payload dto.GraderNotesRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(payload); err != nil {
		return respondError(c, h.logger, err, "invalid payload")
	}

	session, err := h.service.SetGraderNotes(requestContext(c), activityActorFromContext(c), c.Params("id"), payload.GraderNotes)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update grader notes")
	}

	return utils.SendSuccess(c, "grader notes updated", session)
}

func (h *AdminGradingHandler) submit(c *fiber.Ctx) error {
	result, err := h.service.Submit(requestContext(c), activityActorFromContext(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to submit grade")
	}

	return utils.SendSuccess(c, result.Message, result)
}

func (h *AdminGradingHandler) discard(c *fiber.Ctx) error {
	if err := h.service.Discard(requestContext(c), activityActorFromContext(c), c.Params("id")); err != nil {
		return respondError(c, h.logger, err, "failed to discard grading session")
	}

	return utils.SendSuccess(c, "grading session discarded", nil)
}

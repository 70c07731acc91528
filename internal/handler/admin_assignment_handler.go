package handler

import (
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/orbit-admin-api/internal/dto"
	"github.com/noah-isme/orbit-admin-api/internal/middleware"
	"github.com/noah-isme/orbit-admin-api/internal/service"
	"github.com/noah-isme/orbit-admin-api/internal/utils"
)

// AdminAssignmentHandler exposes the per-job assignment editor.
type AdminAssignmentHandler struct {
	service service.AssignmentService
	logger  zerolog.Logger
}

// NewAdminAssignmentHandler constructs the handler.
func NewAdminAssignmentHandler(service service.AssignmentService, logger zerolog.Logger) *AdminAssignmentHandler {
	return &AdminAssignmentHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_assignment_handler").Logger(),
	}
}

// Register attaches assignment routes beneath the jobs router group.
func (h *AdminAssignmentHandler) Register(router fiber.Router) {
	hiring := middleware.AuthOptions{Roles: middleware.HiringRoles}

	router.Get("/:id/assignment", middleware.WithAuth(h.get, hiring))
	router.Put("/:id/assignment", middleware.WithAuth(h.save, hiring))
	router.Post("/:id/assignment/import", middleware.WithAuth(h.importDocument, hiring))
}

func (h *AdminAssignmentHandler) get(c *fiber.Ctx) error {
	response, err := h.service.Get(requestContext(c), activityActorFromContext(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load assignment")
	}

	return utils.SendSuccess(c, "assignment", response)
}

func (h *AdminAssignmentHandler) save(c *fiber.Ctx) error {
	var payload dto.AssignmentUpsertRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Save(requestContext(c), activityActorFromContext(c), c.Params("id"), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to save assignment")
	}

	return h.saved(c, response)
}

// importDocument accepts the JSON document either as a multipart "file" field
// or as the raw request body.
func (h *AdminAssignmentHandler) importDocument(c *fiber.Ctx) error {
	raw, err := h.readDocument(c)
	if err != nil {
		return respondError(c, h.logger, err, "failed to read assignment file")
	}

	response, err := h.service.Import(requestContext(c), activityActorFromContext(c), c.Params("id"), raw)
	if err != nil {
		return respondError(c, h.logger, err, "failed to import assignment")
	}

	return h.saved(c, response)
}

func (h *AdminAssignmentHandler) readDocument(c *fiber.Ctx) ([]byte, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return c.Body(), nil
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "file is required")
	}
	if fileHeader.Size > service.MaxAssignmentImportBytes {
		return nil, service.ErrImportTooLarge
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(io.LimitReader(file, service.MaxAssignmentImportBytes+1))
}

func (h *AdminAssignmentHandler) saved(c *fiber.Ctx, response dto.AssignmentSaveResponse) error {
	if response.Created {
		return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "Assignment created successfully!", response)
	}
	return utils.SendSuccess(c, "Assignment updated successfully!", response)
}

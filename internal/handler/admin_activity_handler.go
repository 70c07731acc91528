package handler

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/orbit-admin-api/internal/dto"
	"github.com/noah-isme/orbit-admin-api/internal/middleware"
	"github.com/noah-isme/orbit-admin-api/internal/service"
	"github.com/noah-isme/orbit-admin-api/internal/utils"
)

// AdminActivityHandler exposes activity log endpoints.
type AdminActivityHandler struct {
	service service.ActivityService
	logger  zerolog.Logger
}

// NewAdminActivityHandler constructs the handler.
func NewAdminActivityHandler(service service.ActivityService, logger zerolog.Logger) *AdminActivityHandler {
	return &AdminActivityHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_activity_handler").Logger(),
	}
}

// Register attaches activity log routes to the router group.
func (h *AdminActivityHandler) Register(router fiber.Router) {
	router.Get("/", middleware.WithAuth(h.list, middleware.AuthOptions{Roles: middleware.ApplicantsRoles}))
}

func (h *AdminActivityHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	if page <= 0 {
		page = 1
	}

	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page size")
	}

	req := dto.AdminActivityListRequest{
		Page:       page,
		PageSize:   pageSize,
		ActorID:    c.Query("actor_id"),
		Action:     c.Query("action"),
		EntityType: c.Query("entity_type"),
		EntityID:   c.Query("entity_id"),
	}
	if since := strings.TrimSpace(c.Query("since")); since != "" {
		parsed, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid since timestamp")
		}
		req.Since = &parsed
	}

	response, err := h.service.List(requestContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list activity logs")
	}

	return utils.OK(c, response.Items, "activity logs", response.Pagination)
}

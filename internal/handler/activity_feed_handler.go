package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/orbit-admin-api/internal/dto"
	"github.com/noah-isme/orbit-admin-api/internal/middleware"
	"github.com/noah-isme/orbit-admin-api/internal/service"
	"github.com/noah-isme/orbit-admin-api/internal/utils"
)

// ActivityFeedHandler serves the recent activity panel.
type ActivityFeedHandler struct {
	service service.ActivityFeedService
	logger  zerolog.Logger
}

// NewActivityFeedHandler constructs the handler instance.
func NewActivityFeedHandler(service service.ActivityFeedService, logger zerolog.Logger) *ActivityFeedHandler {
	return &ActivityFeedHandler{
		service: service,
		logger:  logger.With().Str("component", "activity_feed_handler").Logger(),
	}
}

// Register wires the activity feed routes.
func (h *ActivityFeedHandler) Register(router fiber.Router) {
	router.Get("/recent", middleware.WithAuth(h.recent, middleware.AuthOptions{Roles: middleware.ApplicantsRoles}))
}

func (h *ActivityFeedHandler) recent(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page size")
	}

	result, err := h.service.Recent(requestContext(c), dto.ActivityFeedRequest{
		Page:       page,
		PageSize:   pageSize,
		Action:     c.Query("action"),
		EntityType: c.Query("entity_type"),
	})
	if err != nil {
		return respondError(c, h.logger, err, "failed to fetch recent activity")
	}

	if result.CacheHit {
		c.Set("X-Cache-Hit", "true")
	} else {
		c.Set("X-Cache-Hit", "false")
	}

	return utils.OK(c, result.Items, "recent activity", fiber.Map{
		"pagination": result.Pagination,
		"since":      result.Since,
	})
}

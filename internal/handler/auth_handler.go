package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/orbit-admin-api/internal/dto"
	"github.com/noah-isme/orbit-admin-api/internal/service"
	"github.com/noah-isme/orbit-admin-api/internal/utils"
)

// AuthHandler exposes the admin login endpoint.
type AuthHandler struct {
	service service.AuthService
	logger  zerolog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(service service.AuthService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register attaches auth routes to the router group.
func (h *AuthHandler) Register(router fiber.Router) {
	router.Post("/login", h.login)
	router.Post("/superadmin/login", h.superAdminLogin)
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var payload dto.LoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Login(requestContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to sign in")
	}

	return utils.SendSuccess(c, "login successful", response)
}

func (h *AuthHandler) superAdminLogin(c *fiber.Ctx) error {
	var payload dto.SuperAdminLoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.SuperAdminLogin(requestContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to sign in")
	}

	return utils.SendSuccess(c, "login successful", response)
}

package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/orbit-admin-api/internal/utils"
)

// Role groups accepted by admin features.
var (
	HiringRoles     = []string{RoleHiringManager}
	ApplicantsRoles = []string{RoleHiringManager, RoleProductManager, RoleSuperadmin}
)

// AuthOptions configures the WithAuth helper.
type AuthOptions struct {
	Roles       []string
	RequireUser bool
}

// WithAuth wraps a single handler with authentication and role guards. An empty
// Roles list admits any authenticated user, or anyone when RequireUser is false.
func WithAuth(handler fiber.Handler, opts AuthOptions) fiber.Handler {
	allowed := roleSet(opts.Roles)
	requireUser := opts.RequireUser || len(allowed) > 0

	return func(c *fiber.Ctx) error {
		if requireUser && UserID(c) == "" {
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}
		if len(allowed) > 0 && !hasAnyRole(UserRoles(c), allowed) {
			return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", nil)
		}
		return handler(c)
	}
}

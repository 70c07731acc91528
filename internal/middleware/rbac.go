package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/orbit-admin-api/internal/utils"
)

// Platform roles carried in the token's roles claim.
const (
	RoleHiringManager  = "hiring_manager"
	RoleProductManager = "product_manager"
	RoleSuperadmin     = "superadmin"
)

// RequireRole ensures that the authenticated user holds at least one of the allowed roles.
func RequireRole(roles ...string) fiber.Handler {
	allowed := roleSet(roles)

	return func(c *fiber.Ctx) error {
		if UserID(c) == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		}
		if !hasAnyRole(UserRoles(c), allowed) {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}

func roleSet(roles []string) map[string]struct{} {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		normalized := strings.ToLower(strings.TrimSpace(role))
		if normalized != "" {
			allowed[normalized] = struct{}{}
		}
	}
	return allowed
}

func hasAnyRole(held []string, allowed map[string]struct{}) bool {
	for _, role := range held {
		if _, ok := allowed[normalizeRoleValue(role)]; ok {
			return true
		}
	}
	return false
}

func normalizeRoleValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strings.ToLower(strings.TrimSpace(v))
	case fmt.Stringer:
		return strings.ToLower(strings.TrimSpace(v.String()))
	default:
		if value == nil {
			return ""
		}
		return strings.ToLower(strings.TrimSpace(fmt.Sprintf("%v", value)))
	}
}

package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/orbit-admin-api/internal/utils"
)

// Locals keys populated by JWTProtected.
const (
	LocalUserID      = "user_id"
	LocalUserRole    = "user_role"
	LocalUserRoles   = "user_roles"
	LocalAccessToken = "access_token"
)

// JWTProtected authenticates bearer tokens issued by the hiring platform by
// verifying their HMAC signature. An empty secret rejects every request.
func JWTProtected(secret string) fiber.Handler {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))

	return func(c *fiber.Ctx) error {
		authorization := c.Get(fiber.HeaderAuthorization)
		if authorization == "" && websocketUpgrade(c) {
			// Browsers cannot set headers on a websocket handshake.
			if token := strings.TrimSpace(c.Query("access_token")); token != "" {
				authorization = "Bearer " + token
			}
		}
		tokenString, err := bearerToken(authorization)
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
		}

		if secret == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "token verification is not configured")
		}

		claims := jwt.MapClaims{}
		token, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return utils.SendError(c, fiber.StatusUnauthorized, "token expired")
			}
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		userID := extractUserIDFromClaims(claims)
		if userID == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token claims")
		}

		roles := extractRolesFromClaims(claims)
		c.Locals(LocalUserID, userID)
		c.Locals(LocalUserRoles, roles)
		if len(roles) > 0 {
			c.Locals(LocalUserRole, roles[0])
		}
		c.Locals(LocalAccessToken, tokenString)

		return c.Next()
	}
}

// IssueToken signs an HS256 token JWTProtected accepts for the given subject and roles.
func IssueToken(secret, subject string, roles []string, ttl time.Duration) (string, time.Time, error) {
	if secret == "" {
		return "", time.Time{}, errors.New("jwt secret must be provided")
	}
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":   subject,
		"roles": roles,
		"iat":   now.Unix(),
		"exp":   expiresAt.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, expiresAt, nil
}

// UserID returns the authenticated user id, or "" for anonymous requests.
func UserID(c *fiber.Ctx) string {
	if id, ok := c.Locals(LocalUserID).(string); ok {
		return id
	}
	return ""
}

// UserRoles returns the normalised roles of the authenticated user.
func UserRoles(c *fiber.Ctx) []string {
	switch roles := c.Locals(LocalUserRoles).(type) {
	case []string:
		return roles
	case nil:
		if role := normalizeRoleValue(c.Locals(LocalUserRole)); role != "" {
			return []string{role}
		}
	}
	return nil
}

// AccessToken returns the raw bearer token of the current request.
func AccessToken(c *fiber.Ctx) string {
	if token, ok := c.Locals(LocalAccessToken).(string); ok {
		return token
	}
	return ""
}

func bearerToken(authorization string) (string, error) {
	if authorization == "" {
		return "", errors.New("authorization header missing")
	}

	const bearer = "Bearer "
	if len(authorization) < len(bearer) || !strings.EqualFold(authorization[:len(bearer)], bearer) {
		return "", errors.New("invalid authorization header")
	}

	token := strings.TrimSpace(authorization[len(bearer):])
	if token == "" {
		return "", errors.New("invalid token")
	}
	return token, nil
}

func extractUserIDFromClaims(claims jwt.MapClaims) string {
	for _, key := range []string{"sub", "user_id", "id", "_id"} {
		value, ok := claims[key]
		if !ok {
			continue
		}
		switch v := value.(type) {
		case string:
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				return trimmed
			}
		case float64:
			if v >= 0 {
				return fmt.Sprintf("%.0f", v)
			}
		}
	}
	return ""
}

func extractRolesFromClaims(claims jwt.MapClaims) []string {
	seen := make(map[string]struct{})
	roles := make([]string, 0)
	add := func(value interface{}) {
		str, ok := value.(string)
		if !ok {
			return
		}
		role := strings.ToLower(strings.TrimSpace(str))
		if role == "" {
			return
		}
		if _, dup := seen[role]; dup {
			return
		}
		seen[role] = struct{}{}
		roles = append(roles, role)
	}

	for _, key := range []string{"roles", "role"} {
		switch v := claims[key].(type) {
		case string:
			add(v)
		case []interface{}:
			for _, item := range v {
				add(item)
			}
		}
	}
	return roles
}

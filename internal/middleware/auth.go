package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/techmarket/internal/config"
	"github.com/example/techmarket/internal/models"
	"github.com/example/techmarket/internal/utils"
)

const principalContextKey = "currentPrincipal"

// AuthMiddleware validates JWT tokens and loads the caller's principal into
// context. The core never parses credentials itself.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		userID, isAdmin, err := utils.ParseToken(cfg.JWTSecret, parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(principalContextKey, models.Principal{ID: userID, IsAdmin: isAdmin})
		return c.Next()
	}
}

// AdminOnly rejects callers whose principal is not an admin. Must run after
// AuthMiddleware.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := GetPrincipal(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
		}
		if !principal.IsAdmin {
			return fiber.NewError(fiber.StatusForbidden, "admin access required")
		}
		return c.Next()
	}
}

// GetPrincipal extracts the authenticated principal from context.
func GetPrincipal(c *fiber.Ctx) (models.Principal, bool) {
	value := c.Locals(principalContextKey)
	if value == nil {
		return models.Principal{}, false
	}

	if principal, ok := value.(models.Principal); ok {
		return principal, true
	}

	return models.Principal{}, false
}

// SetPrincipal stores a principal in context. Used by tests to stand in for
// AuthMiddleware.
func SetPrincipal(c *fiber.Ctx, principal models.Principal) {
	c.Locals(principalContextKey, principal)
}

// CanActFor reports whether the principal may act on resources owned by
// userID: the user themselves or an admin.
func CanActFor(principal models.Principal, userID uuid.UUID) bool {
	return principal.IsAdmin || principal.ID == userID
}

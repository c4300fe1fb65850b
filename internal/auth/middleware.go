package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/db/models"
	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/rbac"
	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/web/session"
)

// SessionUser resolves the authenticated user from the request's session
// cookie. Returns nil when the request carries no valid session.
func SessionUser(c *fiber.Ctx) *models.User {
	sessionID := c.Cookies(session.CookieName)
	if sessionID == "" {
		return nil
	}

	sessionData := new(session.Data)
	if err := sessionData.Read(sessionID); err != nil {
		return nil
	}

	if sessionData.User.ID == 0 {
		return nil
	}

	return &sessionData.User
}

// RequirePermission creates Fiber middleware that requires a specific
// module/action permission. Unauthenticated requests get 401, authenticated
// requests without the permission get 403.
func RequirePermission(authService *Service, module rbac.Module, action rbac.Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := SessionUser(c)
		if user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}

		hasPermission, err := authService.HasPermission(user.ID, module, action)
		if err != nil {
			log.Error().Err(err).Uint64("user_id", user.ID).
				Str("module", string(module)).Str("action", string(action)).
				Msg("Failed to check permission")

			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
		}

		if !hasPermission {
			log.Warn().Uint64("user_id", user.ID).
				Str("module", string(module)).Str("action", string(action)).
				Msg("User lacks required permission")

			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Forbidden: You don't have permission to access this resource",
			})
		}

		return c.Next()
	}
}

// RequireAnyPermission creates Fiber middleware that requires at least one of
// the given permissions.
func RequireAnyPermission(authService *Service, permissions ...Permission) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := SessionUser(c)
		if user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}

		hasPermission, err := authService.HasAnyPermission(user.ID, permissions)
		if err != nil {
			log.Error().Err(err).Uint64("user_id", user.ID).
				Msg("Failed to check permissions")

			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
		}

		if !hasPermission {
			log.Warn().Uint64("user_id", user.ID).
				Msg("User lacks required permissions")

			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Forbidden: You don't have permission to access this resource",
			})
		}

		return c.Next()
	}
}

// RequireAuthenticated creates Fiber middleware that only requires a valid
// session, without any permission check.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if SessionUser(c) == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}

		return c.Next()
	}
}

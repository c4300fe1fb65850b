package web

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/web/handler/login"
	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/web/session"
)

// AuthMiddleware is a Fiber middleware that checks for user authentication.
// Everything except the public endpoints requires a valid session; clients
// without one get a JSON 401.
func AuthMiddleware(c *fiber.Ctx) error {
	if isPublicPath(strings.ToLower(c.Path())) {
		return c.Next()
	}

	sessionID := c.Cookies(session.CookieName)
	if sessionID == "" {
		return unauthorized(c)
	}

	sessData := new(session.Data)
	_ = sessData.Read(sessionID)

	if sessData.User.ID == 0 {
		return unauthorized(c)
	}

	return c.Next()
}

func isPublicPath(path string) bool {
	return path == login.Path || path == CheckAlivePath
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
}

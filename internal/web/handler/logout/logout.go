// Package logout provides the JSON logout endpoint.
package logout

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/auth"
	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/config"
	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/db/controller/audit"
	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/db/models"
	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/web/handler"
	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/web/session"
)

// Path is the path to the logout endpoint.
const Path = "/logout"

// Service is the logout handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
}

// Handler is the logout handler.
var Handler = Service{}

// Init initializes the logout handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.db = db

	app.Post(Path, s.Logout)
}

// Logout clears the session and records the logout.
func (s *Service) Logout(c *fiber.Ctx) error {
	user := auth.SessionUser(c)

	sessionID := c.Cookies(session.CookieName)
	if sessionID != "" {
		if err := session.Delete(sessionID); err != nil {
			log.Error().Err(err).Msg("failed to delete session")
		}
	}

	// Clear the session cookie
	c.Cookie(&fiber.Cookie{
		Name:     session.CookieName,
		Value:    "",
		MaxAge:   -1,
		Secure:   !s.cfg.DevMode,
		HTTPOnly: true,
		SameSite: "Lax",
	})

	if user != nil {
		if err := audit.Record(s.db, &models.AuditEntry{
			UserID:        &user.ID,
			Action:        models.AuditActionLogout,
			AffectedTable: "users",
			RecordID:      user.ID,
			IPAddress:     c.IP(),
			UserAgent:     c.Get(fiber.HeaderUserAgent),
		}); err != nil {
			log.Error().Err(err).Uint64("user_id", user.ID).Msg("failed to record logout audit entry")
		}
	}

	return c.JSON(fiber.Map{"message": "logged out"})
}

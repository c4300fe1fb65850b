// Package permission provides the JSON endpoints for inspecting effective
// permissions: the consolidated matrix of a user, single-check validation and
// a roles overview report.
package permission

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/auth"
	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/config"
	rolectl "github.com/AgroCoop-Admin/AgroCoop-Admin/internal/db/controller/role"
	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/db/models"
	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/rbac"
	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/web/handler"
)

const (
	// Path is the base path for permission inspection.
	Path = handler.RootPath + "api/permissions"

	// RouteMe returns the consolidated permissions of the session user.
	RouteMe = Path + "/me"
	// RouteUser returns the consolidated permissions of any user.
	RouteUser = Path + "/users/:id"
	// RouteValidate checks a single module/action pair for the session user.
	RouteValidate = Path + "/validate"
	// RouteReport returns an overview of all roles and their usage.
	RouteReport = Path + "/report"
)

type validateInput struct {
	Module string `json:"module" validate:"required"`
	Action string `json:"action" validate:"required"`
}

type permissionsResponse struct {
	UserID      uint64                        `json:"user_id"`
	Username    string                        `json:"username"`
	Superuser   bool                          `json:"superuser"`
	Roles       []string                      `json:"roles"`
	Permissions rbac.Matrix                   `json:"permissions"`
	Granted     map[rbac.Module][]rbac.Action `json:"granted"`
}

type roleReportEntry struct {
	ID          uint                          `json:"id"`
	Name        string                        `json:"name"`
	Description string                        `json:"description"`
	IsSystem    bool                          `json:"is_system"`
	UserCount   int64                         `json:"user_count"`
	Granted     map[rbac.Module][]rbac.Action `json:"granted"`
}

// Service provides the permission inspection endpoints.
type Service struct {
	handler.Service
	cfg         *config.Config
	db          *gorm.DB
	authService *auth.Service
	validator   *validator.Validate
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *auth.Service) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.db = db
	s.authService = authService
	s.validator = validator.New()

	app.Get(RouteMe, auth.RequireAuthenticated(), s.Me)
	app.Post(RouteValidate, auth.RequireAuthenticated(), s.Validate)
	app.Get(RouteUser,
		auth.RequirePermission(authService, rbac.ModuleUsers, rbac.ActionView),
		s.User,
	)
	app.Get(RouteReport,
		auth.RequirePermission(authService, rbac.ModuleUsers, rbac.ActionView),
		s.Report,
	)
}

// Me returns the consolidated permissions of the session user.
func (s *Service) Me(c *fiber.Ctx) error {
	user := auth.SessionUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	return s.respondPermissions(c, user.ID)
}

// User returns the consolidated permissions of the given user.
func (s *Service) User(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid id"})
	}

	return s.respondPermissions(c, id)
}

// Validate checks one module/action pair for the session user. The result is
// always a verdict: unknown modules or actions simply yield allowed=false.
func (s *Service) Validate(c *fiber.Ctx) error {
	user := auth.SessionUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	input := new(validateInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}

	if err := s.validator.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}

	allowed, err := s.authService.HasPermission(user.ID, rbac.Module(input.Module), rbac.Action(input.Action))
	if err != nil {
		log.Error().Err(err).Uint64("user_id", user.ID).Msg("permission validation failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(fiber.Map{
		"module":  input.Module,
		"action":  input.Action,
		"allowed": allowed,
	})
}

// Report returns an overview of all roles, how many users hold each, and the
// system/custom split.
func (s *Service) Report(c *fiber.Ctx) error {
	roles, err := rolectl.GetAll(s.db)
	if err != nil {
		log.Error().Err(err).Msg("failed to load roles for report")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	var systemCount int

	entries := make([]roleReportEntry, 0, len(roles))
	for i := range roles {
		r := &roles[i]

		var userCount int64
		if err = s.db.Model(&models.UserRole{}).Where("role_id = ?", r.ID).Count(&userCount).Error; err != nil {
			log.Error().Err(err).Uint("role_id", r.ID).Msg("failed to count role assignments")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
		}

		if r.IsSystem {
			systemCount++
		}

		entries = append(entries, roleReportEntry{
			ID:          r.ID,
			Name:        r.Name,
			Description: r.Description,
			IsSystem:    r.IsSystem,
			UserCount:   userCount,
			Granted:     r.Permissions.Describe(),
		})
	}

	return c.JSON(fiber.Map{
		"total_roles":  len(roles),
		"system_roles": systemCount,
		"custom_roles": len(roles) - systemCount,
		"roles":        entries,
	})
}

func (s *Service) respondPermissions(c *fiber.Ctx, userID uint64) error {
	matrix, roleNames, err := s.authService.UserPermissions(userID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}

		log.Error().Err(err).Uint64("user_id", userID).Msg("failed to consolidate permissions")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	var user models.User
	if err = s.db.First(&user, userID).Error; err != nil {
		log.Error().Err(err).Uint64("user_id", userID).Msg("failed to load user")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(permissionsResponse{
		UserID:      user.ID,
		Username:    user.Username,
		Superuser:   user.Superuser,
		Roles:       roleNames,
		Permissions: matrix,
		Granted:     matrix.Describe(),
	})
}

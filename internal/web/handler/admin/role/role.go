// Package role provides the JSON API for role management: CRUD, duplication
// and user assignments. All routes are guarded by permissions on the users
// module; every mutation is written to the audit log.
package role

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/auth"
	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/config"
	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/db/controller/audit"
	rolectl "github.com/AgroCoop-Admin/AgroCoop-Admin/internal/db/controller/role"
	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/db/models"
	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/rbac"
	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/web/handler"
)

const (
	// Path is the base path for role management.
	Path = handler.RootPath + "api/roles"

	// RouteByID addresses a single role.
	RouteByID = Path + "/:id"
	// RouteDuplicate copies a role's permission matrix under a new name.
	RouteDuplicate = Path + "/:id/duplicate"
	// RouteAssign grants a role to a user.
	RouteAssign = Path + "/:id/assign"
	// RouteRevoke removes a role from a user.
	RouteRevoke = Path + "/:id/revoke"
	// RouteUsers lists the users holding a role.
	RouteUsers = Path + "/:id/users"

	// ErrInvalidID is returned when the provided id parameter is invalid or non-positive.
	ErrInvalidID = "invalid id"
	// ErrInvalidPayload is returned when the request body cannot be parsed or fails validation.
	ErrInvalidPayload = "invalid payload"

	rolesTable       = "roles"
	assignmentsTable = "user_roles"
)

// Service provides the role management endpoints.
type Service struct {
	handler.Service
	cfg       *config.Config
	db        *gorm.DB
	validator *validator.Validate
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *auth.Service) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.db = db
	s.cfg = cfg
	s.validator = validator.New()

	app.Get(Path,
		auth.RequirePermission(authService, rbac.ModuleUsers, rbac.ActionView),
		s.List,
	)
	app.Get(RouteByID,
		auth.RequirePermission(authService, rbac.ModuleUsers, rbac.ActionView),
		s.Get,
	)
	app.Post(Path,
		auth.RequirePermission(authService, rbac.ModuleUsers, rbac.ActionCreate),
		s.Create,
	)
	app.Put(RouteByID,
		auth.RequirePermission(authService, rbac.ModuleUsers, rbac.ActionEdit),
		s.Update,
	)
	app.Delete(RouteByID,
		auth.RequirePermission(authService, rbac.ModuleUsers, rbac.ActionDelete),
		s.Delete,
	)
	app.Post(RouteDuplicate,
		auth.RequirePermission(authService, rbac.ModuleUsers, rbac.ActionCreate),
		s.Duplicate,
	)
	app.Post(RouteAssign,
		auth.RequirePermission(authService, rbac.ModuleUsers, rbac.ActionEdit),
		s.Assign,
	)
	app.Post(RouteRevoke,
		auth.RequirePermission(authService, rbac.ModuleUsers, rbac.ActionEdit),
		s.Revoke,
	)
	app.Get(RouteUsers,
		auth.RequirePermission(authService, rbac.ModuleUsers, rbac.ActionView),
		s.Users,
	)
}

// List returns all roles ordered by name.
func (s *Service) List(c *fiber.Ctx) error {
	roles, err := rolectl.GetAll(s.db)
	if err != nil {
		return s.respondErr(c, err)
	}

	out := make([]roleResponse, 0, len(roles))
	for i := range roles {
		out = append(out, newRoleResponse(&roles[i]))
	}

	return c.JSON(fiber.Map{"roles": out})
}

// Get returns a single role.
func (s *Service) Get(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ErrInvalidID})
	}

	r, err := rolectl.GetByID(s.db, id)
	if err != nil {
		return s.respondErr(c, err)
	}

	return c.JSON(newRoleResponse(r))
}

// Create creates a new custom role.
func (s *Service) Create(c *fiber.Ctx) error {
	input := new(createInput)
	if err := s.parseBody(c, input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ErrInvalidPayload})
	}

	if err := rbac.ValidateRaw(input.Permissions); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	r, err := rolectl.Create(s.db, input.Name, input.Description, rbac.Normalize(input.Permissions), false)
	if err != nil {
		return s.respondErr(c, err)
	}

	s.recordAudit(c, models.AuditActionCreate, rolesTable, uint64(r.ID), map[string]any{
		"name": r.Name,
	})

	return c.Status(fiber.StatusCreated).JSON(newRoleResponse(r))
}

// Update applies a partial update to a role.
func (s *Service) Update(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ErrInvalidID})
	}

	input := new(updateInput)
	if err := s.parseBody(c, input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ErrInvalidPayload})
	}

	patch := rolectl.Patch{
		Name:        input.Name,
		Description: input.Description,
	}

	if input.Permissions != nil {
		if err := rbac.ValidateRaw(*input.Permissions); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}

		matrix := rbac.Normalize(*input.Permissions)
		patch.Permissions = &matrix
	}

	r, err := rolectl.Update(s.db, id, patch)
	if err != nil {
		return s.respondErr(c, err)
	}

	s.recordAudit(c, models.AuditActionUpdate, rolesTable, uint64(r.ID), map[string]any{
		"name": r.Name,
	})

	return c.JSON(newRoleResponse(r))
}

// Delete removes a custom role and its assignments.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ErrInvalidID})
	}

	if err := rolectl.Delete(s.db, id); err != nil {
		return s.respondErr(c, err)
	}

	s.recordAudit(c, models.AuditActionDelete, rolesTable, uint64(id), nil)

	return c.SendStatus(fiber.StatusNoContent)
}

// Duplicate creates a non-system copy of a role under a new name.
func (s *Service) Duplicate(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ErrInvalidID})
	}

	input := new(duplicateInput)
	if err := s.parseBody(c, input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ErrInvalidPayload})
	}

	r, err := rolectl.Duplicate(s.db, id, input.Name, input.Description)
	if err != nil {
		return s.respondErr(c, err)
	}

	s.recordAudit(c, models.AuditActionCreate, rolesTable, uint64(r.ID), map[string]any{
		"name":      r.Name,
		"source_id": id,
	})

	return c.Status(fiber.StatusCreated).JSON(newRoleResponse(r))
}

// Assign grants the role to a user.
func (s *Service) Assign(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ErrInvalidID})
	}

	input := new(assignmentInput)
	if err := s.parseBody(c, input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ErrInvalidPayload})
	}

	assignment, err := rolectl.Assign(s.db, input.UserID, id)
	if err != nil {
		return s.respondErr(c, err)
	}

	s.recordAudit(c, models.AuditActionCreate, assignmentsTable, assignment.ID, map[string]any{
		"user_id": input.UserID,
		"role_id": id,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "role assigned"})
}

// Revoke removes the role from a user.
func (s *Service) Revoke(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ErrInvalidID})
	}

	input := new(assignmentInput)
	if err := s.parseBody(c, input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ErrInvalidPayload})
	}

	if err := rolectl.Revoke(s.db, input.UserID, id); err != nil {
		return s.respondErr(c, err)
	}

	s.recordAudit(c, models.AuditActionDelete, assignmentsTable, 0, map[string]any{
		"user_id": input.UserID,
		"role_id": id,
	})

	return c.JSON(fiber.Map{"message": "role revoked"})
}

// Users lists the users holding the role.
func (s *Service) Users(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ErrInvalidID})
	}

	if _, err := rolectl.GetByID(s.db, id); err != nil {
		return s.respondErr(c, err)
	}

	users, err := rolectl.UsersWithRole(s.db, id)
	if err != nil {
		return s.respondErr(c, err)
	}

	out := make([]userResponse, 0, len(users))
	for i := range users {
		out = append(out, newUserResponse(&users[i]))
	}

	return c.JSON(fiber.Map{"users": out})
}

func (s *Service) parseBody(c *fiber.Ctx, input any) error {
	if err := c.BodyParser(input); err != nil {
		return err
	}

	return s.validator.Struct(input)
}

func (s *Service) respondErr(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, rolectl.ErrRoleNotFound), errors.Is(err, rolectl.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, rolectl.ErrNameEmpty),
		errors.Is(err, rolectl.ErrDuplicateName),
		errors.Is(err, rolectl.ErrProtectedRole),
		errors.Is(err, rolectl.ErrAlreadyAssigned),
		errors.Is(err, rolectl.ErrNotAssigned),
		errors.Is(err, rolectl.ErrLastSystemRole):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		log.Error().Err(err).Msg("role operation failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
}

func (s *Service) recordAudit(c *fiber.Ctx, action models.AuditAction, table string, recordID uint64, details map[string]any) {
	entry := &models.AuditEntry{
		Action:        action,
		AffectedTable: table,
		RecordID:      recordID,
		Details:       details,
		IPAddress:     c.IP(),
		UserAgent:     c.Get(fiber.HeaderUserAgent),
	}

	if actor := auth.SessionUser(c); actor != nil {
		entry.UserID = &actor.ID
	}

	if err := audit.Record(s.db, entry); err != nil {
		log.Error().Err(err).Str("table", table).Msg("failed to record audit entry")
	}
}

func parseID(c *fiber.Ctx) (uint, bool) {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id <= 0 {
		return 0, false
	}

	return uint(id), true
}

// Package audit provides the JSON endpoint for browsing the audit log.
package audit

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/auth"
	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/config"
	auditctl "github.com/AgroCoop-Admin/AgroCoop-Admin/internal/db/controller/audit"
	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/db/models"
	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/rbac"
	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/web/handler"
)

const (
	// Path is the base path for the audit log listing.
	Path = handler.RootPath + "api/audit"

	// QueryUserID filters by acting user.
	QueryUserID = "user_id"
	// QueryAction filters by audit action.
	QueryAction = "action"
	// QueryTable filters by affected table.
	QueryTable = "table"
	// QueryFrom is the inclusive lower bound of the time window (RFC 3339).
	QueryFrom = "from"
	// QueryTo is the inclusive upper bound of the time window (RFC 3339).
	QueryTo = "to"
	// QueryPage is the page index, starting at 1.
	QueryPage = "page"
	// QueryPageSize is the page size.
	QueryPageSize = "page_size"
)

type entryResponse struct {
	ID            uint64             `json:"id"`
	UserID        *uint64            `json:"user_id"`
	Action        models.AuditAction `json:"action"`
	AffectedTable string             `json:"affected_table"`
	RecordID      uint64             `json:"record_id"`
	Details       map[string]any     `json:"details"`
	IPAddress     string             `json:"ip_address"`
	UserAgent     string             `json:"user_agent"`
	CreatedAt     time.Time          `json:"created_at"`
}

// Service provides the audit log endpoints.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
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

	app.Get(Path,
		auth.RequirePermission(authService, rbac.ModuleAuditLog, rbac.ActionView),
		s.List,
	)
}

// List returns a filtered page of the audit log, newest first.
func (s *Service) List(c *fiber.Ctx) error {
	filter, err := parseFilter(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	entries, total, err := auditctl.List(s.db, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to list audit entries")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	out := make([]entryResponse, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		out = append(out, entryResponse{
			ID:            e.ID,
			UserID:        e.UserID,
			Action:        e.Action,
			AffectedTable: e.AffectedTable,
			RecordID:      e.RecordID,
			Details:       e.Details,
			IPAddress:     e.IPAddress,
			UserAgent:     e.UserAgent,
			CreatedAt:     e.CreatedAt,
		})
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}

	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > auditctl.MaxPageSize {
		pageSize = auditctl.DefaultPageSize
	}

	return c.JSON(fiber.Map{
		"entries":   out,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

func parseFilter(c *fiber.Ctx) (auditctl.Filter, error) {
	filter := auditctl.Filter{
		Action:        models.AuditAction(c.Query(QueryAction)),
		AffectedTable: c.Query(QueryTable),
		Page:          c.QueryInt(QueryPage, 1),
		PageSize:      c.QueryInt(QueryPageSize, auditctl.DefaultPageSize),
	}

	if raw := c.Query(QueryUserID); raw != "" {
		userID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return filter, fiber.NewError(fiber.StatusBadRequest, "invalid user_id")
		}

		filter.UserID = &userID
	}

	if raw := c.Query(QueryFrom); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, fiber.NewError(fiber.StatusBadRequest, "invalid from timestamp")
		}

		filter.From = &from
	}

	if raw := c.Query(QueryTo); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, fiber.NewError(fiber.StatusBadRequest, "invalid to timestamp")
		}

		filter.To = &to
	}

	return filter, nil
}

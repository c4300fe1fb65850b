package role

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/memory/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/auth"
	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/config"
	rolectl "github.com/AgroCoop-Admin/AgroCoop-Admin/internal/db/controller/role"
	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/db/models"
	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/rbac"
	websess "github.com/AgroCoop-Admin/AgroCoop-Admin/internal/web/session"
)

func setupTest(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.UserRole{},
		&models.AuditEntry{},
	))

	websess.Init(memory.New())

	app := fiber.New()

	s := new(Service)
	s.Init(app, &config.Config{}, db, auth.NewService(db))

	return app, db
}

func seedUser(t *testing.T, db *gorm.DB, username string, superuser bool) *models.User {
	t.Helper()

	user := &models.User{
		Active:    true,
		Username:  username,
		Email:     username + "@example.com",
		Superuser: superuser,
	}

	require.NoError(t, db.Create(user).Error)

	return user
}

// asUser opens a session for the user and returns the session cookie value.
func asUser(t *testing.T, user *models.User) string {
	t.Helper()

	sessionID, err := websess.GenerateSessionID()
	require.NoError(t, err)

	data := &websess.Data{User: *user}
	require.NoError(t, data.Write(sessionID, time.Minute))

	return websess.CookieName + "=" + sessionID
}

func doRequest(t *testing.T, app *fiber.App, method, target, body, cookie string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}

	if cookie != "" {
		req.Header.Set(fiber.HeaderCookie, cookie)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	return resp
}

func decodeRole(t *testing.T, resp *http.Response) roleResponse {
	t.Helper()

	defer func() { _ = resp.Body.Close() }()

	var out roleResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))

	return out
}

func TestListRequiresSession(t *testing.T) {
	app, _ := setupTest(t)

	resp := doRequest(t, app, http.MethodGet, Path, "", "")
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestListRequiresViewPermission(t *testing.T) {
	app, db := setupTest(t)

	noRoles := seedUser(t, db, "norole", false)

	resp := doRequest(t, app, http.MethodGet, Path, "", asUser(t, noRoles))
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestViewOnlyUserCannotCreate(t *testing.T) {
	app, db := setupTest(t)

	viewer := seedUser(t, db, "viewer", false)

	r, err := rolectl.Create(db, "Auditor", "", rbac.Normalize(map[string]map[string]bool{
		"users": {"view": true},
	}), false)
	require.NoError(t, err)

	_, err = rolectl.Assign(db, viewer.ID, r.ID)
	require.NoError(t, err)

	cookie := asUser(t, viewer)

	resp := doRequest(t, app, http.MethodGet, Path, "", cookie)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(t, app, http.MethodPost, Path, `{"name": "Sneaky"}`, cookie)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCreateGetAndList(t *testing.T) {
	app, db := setupTest(t)

	admin := seedUser(t, db, "admin", true)
	cookie := asUser(t, admin)

	body := `{
		"name": "Agronomist",
		"description": "Field staff",
		"permissions": {"plots": {"view": true, "edit": true}, "crops": {"view": true}}
	}`

	resp := doRequest(t, app, http.MethodPost, Path, body, cookie)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	created := decodeRole(t, resp)
	assert.Equal(t, "Agronomist", created.Name)
	assert.False(t, created.IsSystem)
	assert.True(t, created.Permissions.Has(rbac.ModulePlots, rbac.ActionEdit))
	assert.False(t, created.Permissions.Has(rbac.ModulePlots, rbac.ActionDelete))
	assert.Equal(t, []rbac.Action{rbac.ActionView, rbac.ActionEdit}, created.Granted[rbac.ModulePlots])

	// mutation is audit-logged with the acting user
	var entry models.AuditEntry
	require.NoError(t, db.Where("affected_table = ? AND action = ?", rolesTable, models.AuditActionCreate).
		First(&entry).Error)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, admin.ID, *entry.UserID)
	assert.Equal(t, uint64(created.ID), entry.RecordID)

	resp = doRequest(t, app, http.MethodGet, fmt.Sprintf("%s/%d", Path, created.ID), "", cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decodeRole(t, resp)
	assert.Equal(t, created.ID, got.ID)

	resp = doRequest(t, app, http.MethodGet, Path, "", cookie)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list struct {
		Roles []roleResponse `json:"roles"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list.Roles, 1)
	assert.Equal(t, "Agronomist", list.Roles[0].Name)
}

func TestCreateRejectsUnknownPermissionKeys(t *testing.T) {
	app, db := setupTest(t)

	cookie := asUser(t, seedUser(t, db, "admin", true))

	resp := doRequest(t, app, http.MethodPost, Path,
		`{"name": "Bad", "permissions": {"campaigns": {"view": true}}}`, cookie)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateRejectsDuplicateNameCaseInsensitive(t *testing.T) {
	app, db := setupTest(t)

	cookie := asUser(t, seedUser(t, db, "admin", true))

	resp := doRequest(t, app, http.MethodPost, Path, `{"name": "Agronomist"}`, cookie)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doRequest(t, app, http.MethodPost, Path, `{"name": "AGRONOMIST"}`, cookie)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdate(t *testing.T) {
	app, db := setupTest(t)

	cookie := asUser(t, seedUser(t, db, "admin", true))

	resp := doRequest(t, app, http.MethodPost, Path, `{"name": "Clerk"}`, cookie)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeRole(t, resp)

	body := `{"name": "Senior Clerk", "permissions": {"reports": {"view": true}}}`
	resp = doRequest(t, app, http.MethodPut, fmt.Sprintf("%s/%d", Path, created.ID), body, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	updated := decodeRole(t, resp)
	assert.Equal(t, "Senior Clerk", updated.Name)
	assert.True(t, updated.Permissions.Has(rbac.ModuleReports, rbac.ActionView))

	var count int64
	require.NoError(t, db.Model(&models.AuditEntry{}).
		Where("affected_table = ? AND action = ?", rolesTable, models.AuditActionUpdate).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUpdateUnknownRole(t *testing.T) {
	app, db := setupTest(t)

	cookie := asUser(t, seedUser(t, db, "admin", true))

	resp := doRequest(t, app, http.MethodPut, Path+"/999", `{"name": "Ghost"}`, cookie)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDelete(t *testing.T) {
	app, db := setupTest(t)

	cookie := asUser(t, seedUser(t, db, "admin", true))

	resp := doRequest(t, app, http.MethodPost, Path, `{"name": "Temp"}`, cookie)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeRole(t, resp)

	resp = doRequest(t, app, http.MethodDelete, fmt.Sprintf("%s/%d", Path, created.ID), "", cookie)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doRequest(t, app, http.MethodGet, fmt.Sprintf("%s/%d", Path, created.ID), "", cookie)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteSystemRoleRefused(t *testing.T) {
	app, db := setupTest(t)

	cookie := asUser(t, seedUser(t, db, "admin", true))

	system, err := rolectl.Create(db, "Administrator", "", rbac.AllGranted(), true)
	require.NoError(t, err)

	resp := doRequest(t, app, http.MethodDelete, fmt.Sprintf("%s/%d", Path, system.ID), "", cookie)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDuplicate(t *testing.T) {
	app, db := setupTest(t)

	cookie := asUser(t, seedUser(t, db, "admin", true))

	source, err := rolectl.Create(db, "Member", "Baseline", rbac.Normalize(map[string]map[string]bool{
		"members": {"view": true, "edit": true},
	}), true)
	require.NoError(t, err)

	resp := doRequest(t, app, http.MethodPost, fmt.Sprintf("%s/%d/duplicate", Path, source.ID),
		`{"name": "Member Trainee"}`, cookie)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	copied := decodeRole(t, resp)
	assert.Equal(t, "Member Trainee", copied.Name)
	assert.False(t, copied.IsSystem, "duplicated roles are never system roles")
	assert.True(t, copied.Permissions.Has(rbac.ModuleMembers, rbac.ActionEdit))
}

func TestAssignAndRevoke(t *testing.T) {
	app, db := setupTest(t)

	admin := seedUser(t, db, "admin", true)
	target := seedUser(t, db, "worker", false)
	cookie := asUser(t, admin)

	r, err := rolectl.Create(db, "Clerk", "", rbac.New(), false)
	require.NoError(t, err)

	assignBody := fmt.Sprintf(`{"user_id": %d}`, target.ID)

	resp := doRequest(t, app, http.MethodPost, fmt.Sprintf("%s/%d/assign", Path, r.ID), assignBody, cookie)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// assigning the same role twice is refused
	resp = doRequest(t, app, http.MethodPost, fmt.Sprintf("%s/%d/assign", Path, r.ID), assignBody, cookie)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, app, http.MethodPost, fmt.Sprintf("%s/%d/revoke", Path, r.ID), assignBody, cookie)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(t, app, http.MethodPost, fmt.Sprintf("%s/%d/revoke", Path, r.ID), assignBody, cookie)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRevokeLastSystemRoleRefused(t *testing.T) {
	app, db := setupTest(t)

	admin := seedUser(t, db, "admin", true)
	target := seedUser(t, db, "worker", false)
	cookie := asUser(t, admin)

	system, err := rolectl.Create(db, "Member", "", rbac.New(), true)
	require.NoError(t, err)

	_, err = rolectl.Assign(db, target.ID, system.ID)
	require.NoError(t, err)

	resp := doRequest(t, app, http.MethodPost, fmt.Sprintf("%s/%d/revoke", Path, system.ID),
		fmt.Sprintf(`{"user_id": %d}`, target.ID), cookie)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// the assignment must be intact
	roles, err := rolectl.RolesForUser(db, target.ID)
	require.NoError(t, err)
	require.Len(t, roles, 1)
}

func TestUsersWithRole(t *testing.T) {
	app, db := setupTest(t)

	admin := seedUser(t, db, "admin", true)
	worker := seedUser(t, db, "worker", false)
	cookie := asUser(t, admin)

	r, err := rolectl.Create(db, "Clerk", "", rbac.New(), false)
	require.NoError(t, err)

	_, err = rolectl.Assign(db, worker.ID, r.ID)
	require.NoError(t, err)

	resp := doRequest(t, app, http.MethodGet, fmt.Sprintf("%s/%d/users", Path, r.ID), "", cookie)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Users []userResponse `json:"users"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Users, 1)
	assert.Equal(t, "worker", out.Users[0].Username)
}

func TestInvalidIDParam(t *testing.T) {
	app, db := setupTest(t)

	cookie := asUser(t, seedUser(t, db, "admin", true))

	resp := doRequest(t, app, http.MethodGet, Path+"/abc", "", cookie)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

package login

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/memory/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/config"
	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/db/models"
	websess "github.com/AgroCoop-Admin/AgroCoop-Admin/internal/web/session"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open sqlite in-memory db: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.AuditEntry{}); err != nil {
		t.Fatalf("failed to migrate models: %v", err)
	}

	return db
}

func newTestConfig() *config.Config {
	return &config.Config{
		DevMode: false,
		Webserver: config.Webserver{
			URL:     "http://localhost",
			Port:    3000,
			Session: config.Session{ExpiryTime: time.Minute},
		},
	}
}

func newTestService(t *testing.T) (*Service, *fiber.App, *gorm.DB) {
	t.Helper()

	db := newTestDB(t)
	app := fiber.New()

	websess.Init(memory.New())

	s := new(Service)
	if err := s.Init(app, newTestConfig(), db); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	return s, app, db
}

func seedUser(t *testing.T, db *gorm.DB, username, password string, active bool) *models.User {
	t.Helper()

	user := &models.User{
		Active:   active,
		Username: username,
		Email:    username + "@example.com",
		Password: models.HashPassword(password),
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	return user
}

func performLogin(t *testing.T, app *fiber.App, body string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, Path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}

	return resp
}

func TestPostSuccessSetsCookieAndRecordsAudit(t *testing.T) {
	_, app, db := newTestService(t)

	user := seedUser(t, db, "alice", "s3cr3t", true)

	resp := performLogin(t, app, `{"username":"alice","password":"s3cr3t"}`)
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", resp.StatusCode)
	}

	setCookie := resp.Header.Get("Set-Cookie")
	if !strings.Contains(setCookie, websess.CookieName+"=") {
		t.Fatalf("expected session cookie, got %q", setCookie)
	}

	if !strings.Contains(strings.ToLower(setCookie), "secure") {
		t.Fatalf("expected Secure flag on cookie when DevMode=false, got %q", setCookie)
	}

	var payload struct {
		User struct {
			ID       uint64 `json:"id"`
			Username string `json:"username"`
		} `json:"user"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if payload.User.ID != user.ID || payload.User.Username != "alice" {
		t.Fatalf("unexpected user in response: %+v", payload.User)
	}

	var entries []models.AuditEntry
	if err := db.Where("action = ?", models.AuditActionLogin).Find(&entries).Error; err != nil {
		t.Fatalf("failed to query audit log: %v", err)
	}

	if len(entries) != 1 || entries[0].UserID == nil || *entries[0].UserID != user.ID {
		t.Fatalf("expected one login audit entry for user %d, got %+v", user.ID, entries)
	}
}

func TestPostDevModeDisablesSecure(t *testing.T) {
	db := newTestDB(t)
	app := fiber.New()

	websess.Init(memory.New())

	cfg := newTestConfig()
	cfg.DevMode = true

	s := new(Service)
	if err := s.Init(app, cfg, db); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	seedUser(t, db, "bob", "pass", true)

	resp := performLogin(t, app, `{"username":"bob","password":"pass"}`)
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", resp.StatusCode)
	}

	setCookie := resp.Header.Get("Set-Cookie")
	if strings.Contains(strings.ToLower(setCookie), "secure") {
		t.Fatalf("did not expect Secure flag when DevMode=true, got %q", setCookie)
	}
}

func TestPostRejections(t *testing.T) {
	_, app, db := newTestService(t)

	seedUser(t, db, "carol", "correct", true)
	seedUser(t, db, "dave", "pass", false)

	testCases := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{
			name:       "wrong password",
			body:       `{"username":"carol","password":"wrong"}`,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "unknown user",
			body:       `{"username":"nobody","password":"whatever"}`,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "inactive account",
			body:       `{"username":"dave","password":"pass"}`,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "malformed json",
			body:       `{`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing password",
			body:       `{"username":"carol"}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp := performLogin(t, app, tc.body)
			defer func() { _ = resp.Body.Close() }()

			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, resp.StatusCode)
			}

			if resp.Header.Get("Set-Cookie") != "" {
				t.Fatalf("no session cookie expected on failed login, got %q", resp.Header.Get("Set-Cookie"))
			}
		})
	}

	var count int64
	if err := db.Model(&models.AuditEntry{}).Where("action = ?", models.AuditActionLogin).Count(&count).Error; err != nil {
		t.Fatalf("failed to count audit entries: %v", err)
	}

	if count != 0 {
		t.Fatalf("failed logins must not be recorded as LOGIN, got %d entries", count)
	}
}

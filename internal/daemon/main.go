// Package daemon wires the database, session storage and web service together.
package daemon

import (
	"fmt"

	sessionmemory "github.com/gofiber/storage/memory/v2"
	sessionmysql "github.com/gofiber/storage/mysql/v2"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/config"
	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/db/dsn"
	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/db/models"
	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/web"
	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/web/session"
)

// Daemon represents the main application daemon.
type Daemon struct {
	webService web.Service
	cfg        *config.Config
}

// Start starts the Daemon's web service.
func (d *Daemon) Start() error {
	return d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port))
}

// WaitShutdown blocks until the web service has shut down gracefully.
func (d *Daemon) WaitShutdown() {
	d.webService.WaitShutdown()
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) *Daemon {
	if cfg == nil {
		log.Fatal().Msg("config is nil")
		return nil
	}

	db := OpenDatabase(cfg)

	seed(cfg, db)

	// Initialize fiber session store. Dev mode keeps sessions in memory so a
	// local instance needs nothing but the database.
	if cfg.DevMode {
		session.Init(sessionmemory.New())
	} else {
		session.Init(sessionmysql.New(sessionmysql.Config{
			ConnectionURI: dsn.Create(cfg),
			Table:         "sessions",
		}))
	}

	return &Daemon{
		webService: *web.New(cfg, db),
		cfg:        cfg,
	}
}

// OpenDatabase opens the MySQL database and migrates the schema.
func OpenDatabase(cfg *config.Config) *gorm.DB {
	dbDriver := gormmysql.Open(dsn.Create(cfg))

	db, err := gorm.Open(dbDriver, &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
		return nil
	}

	if err = db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.UserRole{},
		&models.AuditEntry{},
	); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
		return nil
	}

	return db
}

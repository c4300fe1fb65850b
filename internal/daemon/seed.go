package daemon

import (
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/config"
	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/db/controller/role"
	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/db/models"
)

func seed(_ *config.Config, db *gorm.DB) {
	// The built-in roles must exist before anyone can be assigned one.
	if err := role.EnsureSystemRoles(db); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure system roles")
		return
	}

	var count int64
	db.Model(&models.User{}).Count(&count)

	if count != 0 {
		return
	}

	admin := &models.User{
		Active:    true,
		Username:  "admin",
		Email:     "admin@localhost",
		Password:  models.HashPassword("changeme"),
		Superuser: true,
	}

	if err := db.Create(admin).Error; err != nil {
		log.Fatal().Err(err).Msg("failed to create initial admin user")
		return
	}

	administrator, err := role.Get(db, role.NameAdministrator)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load Administrator role")
		return
	}

	if _, err = role.Assign(db, admin.ID, administrator.ID); err != nil {
		log.Fatal().Err(err).Msg("failed to assign Administrator role")
		return
	}

	log.Warn().Msg(`created initial user "admin" with password "changeme", change it immediately`)
}

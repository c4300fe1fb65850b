package app

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/config"
	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/daemon"
	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/db/controller/role"
	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/logger"
)

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(rolesCmd)
}

// rolesCmd re-runs the system-role bootstrap without starting the web service.
// Useful after upgrades that change the built-in grant tables.
var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "Create or refresh the built-in system roles",
	PreRun: func(_ *cobra.Command, _ []string) {
		if cfg, err = config.ReadConfig(configPath); err != nil {
			panic(err)
		}

		if err = logger.Init(cfg.Log); err != nil {
			panic(err)
		}
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		db := daemon.OpenDatabase(&cfg)

		if err := role.EnsureSystemRoles(db); err != nil {
			return err
		}

		log.Info().Msg("system roles are up to date")

		return nil
	},
}

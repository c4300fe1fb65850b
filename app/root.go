// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"

	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/config"
)

var (
	cfg        config.Config
	configPath string // Path to the configuration directory
	err        error

	rootCmd = &cobra.Command{
		Use:   "agrocoop-admin",
		Short: "AgroCoop-Admin is a web-based management backend for agricultural cooperatives",
		Long: `AgroCoop-Admin is a web-based management backend for agricultural cooperatives
that keeps member, land-plot and crop-cycle records behind a role-based
permission model.`,
		Args: cobra.OnlyValidArgs,
	}
)

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./etc/", "Path to the configuration directory")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

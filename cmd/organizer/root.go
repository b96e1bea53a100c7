package main

import (
	"strings"

	"github.com/personal-organizer/organizer/internal/config"
	"github.com/spf13/cobra"
)

// newRootCmd builds the organizer command tree.
func newRootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:   "organizer",
		Short: "Personal habit and goal tracker API",
		Long: `Organizer serves the habit and goal tracking API.

QUICK START:

  $ organizer init --db-type sqlite --db-path organizer.db
  $ organizer serve

The config file defaults to ./config.yaml (or env CONFIG_PATH). Setting
DB_CONNECTION skips the database-dsn entry of the file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "config file path (or env CONFIG_PATH)")

	appConfig := func() (config.AppConfig, error) {
		appCfg, err := config.LoadFromEnv()
		if err != nil {
			return config.AppConfig{}, err
		}
		if strings.TrimSpace(cfgPath) != "" {
			appCfg.ConfigPath = config.ResolveConfigPath(cfgPath)
		}
		return appCfg, nil
	}

	root.AddCommand(
		newServeCmd(appConfig),
		newInitCmd(appConfig),
		newMigrateCmd(appConfig),
		newSeedTemplatesCmd(appConfig),
	)
	return root
}

// appConfigFunc resolves the application config for a command run.
type appConfigFunc func() (config.AppConfig, error)

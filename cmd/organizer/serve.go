package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/personal-organizer/organizer/internal/app"
	"github.com/personal-organizer/organizer/internal/config"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newServeCmd(appConfig appConfigFunc) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Run the HTTP API server until SIGINT or SIGTERM.

When no config file exists and DB_CONNECTION is unset, a SQLite config is
written first with the default settings.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			appCfg, err := appConfig()
			if err != nil {
				return err
			}
			if port < 0 || port > 65535 {
				return errInvalidPort(port)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			configPath := config.ResolveConfigPath(appCfg.ConfigPath)
			if !app.ConfigExists(configPath) && strings.TrimSpace(os.Getenv(config.EnvDBConnection)) == "" {
				log.Info("config.yaml not found, writing a default sqlite config...")
				if errInit := app.Initialize(appCfg, app.InitOptions{Port: port}); errInit != nil {
					return errInit
				}
			}
			return app.RunServer(ctx, appCfg)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "port for a generated config (default 3000)")
	return cmd
}

package main

import (
	"fmt"

	"github.com/personal-organizer/organizer/internal/app"
	"github.com/spf13/cobra"
)

func newInitCmd(appConfig appConfigFunc) *cobra.Command {
	var opts app.InitOptions

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file and prepare the database",
		Long: `Write a config file with a random JWT secret, check that the database is
reachable and migrate the schema. The built-in goal templates are seeded
as part of the migration.

  $ organizer init --db-type sqlite --db-path data/organizer.db
  $ organizer init --db-type postgres --db-host localhost --db-user app --db-name organizer`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Port < 0 || opts.Port > 65535 {
				return errInvalidPort(opts.Port)
			}
			appCfg, err := appConfig()
			if err != nil {
				return err
			}
			if errInit := app.Initialize(appCfg, opts); errInit != nil {
				return errInit
			}
			fmt.Fprintln(cmd.OutOrStdout(), "initialized")
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.DatabaseType, "db-type", "sqlite", "database type (sqlite or postgres)")
	flags.StringVar(&opts.DatabasePath, "db-path", "", "sqlite database file")
	flags.StringVar(&opts.DatabaseHost, "db-host", "", "postgres host")
	flags.IntVar(&opts.DatabasePort, "db-port", 5432, "postgres port")
	flags.StringVar(&opts.DatabaseUser, "db-user", "", "postgres user")
	flags.StringVar(&opts.DatabasePassword, "db-password", "", "postgres password")
	flags.StringVar(&opts.DatabaseName, "db-name", "", "postgres database name")
	flags.StringVar(&opts.DatabaseSSLMode, "db-sslmode", "disable", "postgres sslmode")
	flags.IntVar(&opts.Port, "port", 0, "HTTP port written to the config (default 3000)")
	flags.BoolVar(&opts.Force, "force", false, "overwrite an existing config file")
	return cmd
}

func errInvalidPort(port int) error {
	return fmt.Errorf("invalid port: %d", port)
}

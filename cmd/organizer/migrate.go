package main

import (
	"fmt"

	"github.com/personal-organizer/organizer/internal/app"
	"github.com/spf13/cobra"
)

func newMigrateCmd(appConfig appConfigFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			appCfg, err := appConfig()
			if err != nil {
				return err
			}
			if errMigrate := app.Migrate(cmd.Context(), appCfg); errMigrate != nil {
				return errMigrate
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func newSeedTemplatesCmd(appConfig appConfigFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-templates",
		Short: "Restore the built-in goal templates",
		Long: `Insert the built-in goal templates when the database has none. Existing
templates are left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			appCfg, err := appConfig()
			if err != nil {
				return err
			}
			created, errSeed := app.SeedTemplates(cmd.Context(), appCfg)
			if errSeed != nil {
				return errSeed
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %d templates\n", created)
			return nil
		},
	}
}

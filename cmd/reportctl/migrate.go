package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kirillkom/visiocar/internal/infrastructure/repository/postgres"
)

func newMigrateCmd() *cobra.Command {
	var dsn string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("dsn") {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				dsn = cfg.PostgresDSN
			}
			db, err := postgres.OpenDB(dsn)
			if err != nil {
				return fmt.Errorf("open postgres: %w", err)
			}
			defer db.Close()

			if err := postgres.EnsureSchema(cmd.Context(), db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
	cmd.Flags().StringVar(&dsn, "dsn", "", "PostgreSQL DSN (default: POSTGRES_DSN)")
	return cmd
}

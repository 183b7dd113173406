package cmd

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/korusync/korusync/internal/db"
	"github.com/spf13/cobra"
)

func MigrateCmd(d *Database) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back schema migrations",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return d.With(func(conn *sqlx.DB) error {
				err := db.RunMigrations(conn.DB, d.Driver)
				if err != nil {
					return err
				}
				return printVersion(cmd, d.Driver, conn)
			})
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return d.With(func(conn *sqlx.DB) error {
				err := db.MigrateDown(conn.DB, d.Driver)
				if err != nil {
					return err
				}
				return printVersion(cmd, d.Driver, conn)
			})
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print the applied schema version and pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return d.With(func(conn *sqlx.DB) error {
				err := printVersion(cmd, d.Driver, conn)
				if err != nil {
					return err
				}
				pending, err := db.PendingMigrations(conn.DB, d.Driver)
				if err != nil {
					return err
				}
				if len(pending) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "up to date")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "pending: %v\n", pending)
				return nil
			})
		},
	})

	return migrateCmd
}

func printVersion(cmd *cobra.Command, driver string, conn *sqlx.DB) error {
	version, err := db.MigrationVersion(conn.DB, driver)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version: %d\n", version)
	return nil
}

package cmd

import (
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/korusync/korusync/internal/config"
	"github.com/korusync/korusync/internal/db"
	"github.com/spf13/cobra"
)

// Database holds the connection flags shared by every command.
type Database struct {
	Driver     string
	Connection string
}

// AddDatabaseFlags registers --driver and --db on root, defaulting to
// DB_DRIVER and DB_CONNECTION.
func AddDatabaseFlags(root *cobra.Command) *Database {
	driver, connection := config.LoadDatabase()
	d := &Database{}
	root.PersistentFlags().StringVar(&d.Driver, "driver", driver, "database driver (sqlite or pgx)")
	root.PersistentFlags().StringVar(&d.Connection, "db", connection, "database connection string")
	return d
}

// With opens the database without running migrations, calls fn and
// closes the connection.
func (d *Database) With(fn func(conn *sqlx.DB) error) error {
	conn, err := db.Init(d.Driver, d.Connection)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		closeErr := conn.Close()
		if closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()
	return fn(conn)
}

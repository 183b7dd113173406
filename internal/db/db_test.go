package db

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsUpAndDown(t *testing.T) {
	conn, err := Init("sqlite", filepath.Join(t.TempDir(), "nested", "test.db")+"?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, RunMigrations(conn.DB, "sqlite"))

	version, err := MigrationVersion(conn.DB, "sqlite")
	require.NoError(t, err)
	assert.Equal(t, int64(3), version)

	pending, err := PendingMigrations(conn.DB, "sqlite")
	require.NoError(t, err)
	assert.Empty(t, pending)

	require.NoError(t, MigrateDown(conn.DB, "sqlite"))

	pending, err = PendingMigrations(conn.DB, "sqlite")
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, pending)
}

func TestSetupGooseRejectsUnknownDriver(t *testing.T) {
	assert.Error(t, setupGoose("mysql"))
}

func TestWithTxRollsBack(t *testing.T) {
	conn, err := Init("sqlite", filepath.Join(t.TempDir(), "tx.db"))
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Exec(`CREATE TABLE notes (body TEXT NOT NULL)`)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = WithTx(conn, func(tx *sqlx.Tx) error {
		_, err := tx.Exec(`INSERT INTO notes (body) VALUES ($1)`, "draft")
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	err = WithTx(conn, func(tx *sqlx.Tx) error {
		_, err := tx.Exec(`INSERT INTO notes (body) VALUES ($1)`, "kept")
		return err
	})
	require.NoError(t, err)

	var bodies []string
	require.NoError(t, conn.Select(&bodies, `SELECT body FROM notes`))
	assert.Equal(t, []string{"kept"}, bodies)
}

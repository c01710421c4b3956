package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"makemybill/m/internal/config"
	"makemybill/m/internal/migrations"
)

func TestConnectSQLite(t *testing.T) {
	db, err := Connect(config.DatabaseConfig{Driver: "sqlite", DSN: "file::memory:", MaxOpenConns: 10})
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, 1, db.Stats().MaxOpenConnections)
	assert.Equal(t, "SELECT 1 WHERE 1 = ?", db.Rebind("SELECT 1 WHERE 1 = ?"))

	// The schema can be applied repeatedly
	require.NoError(t, migrations.Run(db))
	require.NoError(t, migrations.Run(db))
}

func TestConnectRejectsUnknownDriver(t *testing.T) {
	_, err := Connect(config.DatabaseConfig{Driver: "mysql", DSN: "x"})
	require.Error(t, err)
}

package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osassistant/backend/internal/config"
	"github.com/osassistant/backend/internal/models"
)

func TestConnectSQLiteAndMigrate(t *testing.T) {
	cfg := config.Config{
		DBDriver:   config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "nested", "kb.db"),
	}

	conn, err := Connect(cfg)
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(conn))
	require.NoError(t, Ping(conn))
	assert.Same(t, conn, GetDB())

	c := models.Case{ProblemDescription: "Impressora não imprime", Solution: "Reiniciar spooler", SystemType: "Hardware", Tags: []string{"impressora"}}
	require.NoError(t, conn.Create(&c).Error)

	var loaded models.Case
	require.NoError(t, conn.First(&loaded, c.ID).Error)
	assert.Equal(t, []string{"impressora"}, []string(loaded.Tags))
	assert.Nil(t, loaded.EffectivenessScore)
}

func TestDialectorRejectsMemory(t *testing.T) {
	_, err := Dialector(config.Config{DBDriver: config.DriverMemory})
	assert.Error(t, err)
}

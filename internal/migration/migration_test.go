package migration

import (
	"io/fs"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/oilfield/internal/tank/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestEmbeddedMigrationsPaired(t *testing.T) {
	ups, err := fs.Glob(embeddedMigrations, "migrations/*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(embeddedMigrations, "migrations/*.down.sql")
	require.NoError(t, err)

	assert.NotEmpty(t, ups)
	assert.Len(t, downs, len(ups))
}

func TestRunMigrationsRequiresHandle(t *testing.T) {
	assert.Error(t, RunMigrations(nil))
}

func TestAutoMigrateCreatesTables(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:automigrate?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, AutoMigrate(conn))

	for _, model := range []any{&domain.Tank{}, &domain.Well{}, &domain.Reading{}, &domain.RunTicket{}} {
		assert.True(t, conn.Migrator().HasTable(model))
	}
	assert.True(t, conn.Migrator().HasTable("tank_wells"))
	assert.True(t, conn.Migrator().HasIndex(&domain.Reading{}, "ux_tank_readings_tank_date_granularity"))
}

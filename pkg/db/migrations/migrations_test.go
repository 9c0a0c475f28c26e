package migrations

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "migrations.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	m := NewMigrator(db)

	require.NoError(t, m.Migrate(ctx))
	require.NoError(t, m.Migrate(ctx))

	for _, table := range []string{"images", "image_locations", "tags", "image_tags"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}

	statuses, err := m.Status(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	for _, status := range statuses {
		assert.True(t, status.Applied)
		assert.NotNil(t, status.AppliedAt)
	}
}

func TestRollback(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	m := NewMigrator(db)

	require.NoError(t, m.Migrate(ctx))
	require.NoError(t, m.Rollback(ctx))

	statuses, err := m.Status(ctx)
	require.NoError(t, err)
	assert.True(t, statuses[0].Applied)
	assert.False(t, statuses[1].Applied)
	assert.False(t, db.Migrator().HasIndex("image_locations", "idx_location_path"))

	require.NoError(t, m.Rollback(ctx))
	assert.False(t, db.Migrator().HasTable("images"))

	assert.Error(t, m.Rollback(ctx))
}

func TestMigrationsRunInVersionOrder(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)

	var order []int
	step := func(version int) Migration {
		return Migration{
			Version: version,
			Up: func(*gorm.DB) error {
				order = append(order, version)
				return nil
			},
			Down: func(*gorm.DB) error { return nil },
		}
	}

	m := newMigrator(db, []Migration{step(3), step(1), step(2)})
	require.NoError(t, m.Migrate(ctx))
	assert.Equal(t, []int{1, 2, 3}, order)
}

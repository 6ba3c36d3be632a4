package database_test

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noah-isme/loopwar-api/internal/database"
	"github.com/noah-isme/loopwar-api/internal/models"
)

func TestMigrateCreatesEveryTable(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:migrate?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	for _, model := range database.Models() {
		require.True(t, db.Migrator().HasTable(model))
	}
	require.True(t, db.Migrator().HasIndex(&models.CodeProgress{}, "idx_user_code_progress_pair"))
}

func TestConnectRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client, err := database.ConnectRedis(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	defer client.Close()
	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())

	_, err = database.ConnectRedis(context.Background(), "")
	require.Error(t, err)

	_, err = database.ConnectRedis(context.Background(), "not a url")
	require.Error(t, err)
}

func TestConnectGuards(t *testing.T) {
	_, err := database.ConnectPostgres("", database.PoolConfig{})
	require.Error(t, err)

	_, err = database.ConnectNATS("", "loopwar-test", zerolog.Nop())
	require.Error(t, err)
}

package database

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/techoh/config"
	"github.com/d60-Lab/techoh/internal/storage"
)

func TestInitDB_SQLite(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.DSN = ":memory:"

	db, err := InitDB(cfg)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()
	require.NoError(t, sqlDB.Ping())
}

func TestInitDB_RejectsNonSQLDriver(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Driver = "redis"
	_, err := InitDB(cfg)
	require.Error(t, err)
}

func TestInitRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Default()
	cfg.Redis.Addr = mr.Addr()

	client, err := InitRedis(cfg)
	require.NoError(t, err)
	defer client.Close()
	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestInitRedis_Unreachable(t *testing.T) {
	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	addr := mr.Addr()
	mr.Close()

	cfg := config.Default()
	cfg.Redis.Addr = addr
	_, err := InitRedis(cfg)
	require.ErrorIs(t, err, storage.ErrUnavailable)
}

func TestOpenMedium(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Driver = "memory"
	m, err := OpenMedium(cfg)
	require.NoError(t, err)
	assert.IsType(t, &storage.MemoryMedium{}, m)

	cfg = config.Default()
	cfg.Storage.DSN = ":memory:"
	m, err = OpenMedium(cfg)
	require.NoError(t, err)
	defer m.Close()
	assert.IsType(t, &storage.GormMedium{}, m)

	e, err := m.Get(context.Background(), "techoh-users")
	require.NoError(t, err)
	assert.False(t, e.Exists())
}

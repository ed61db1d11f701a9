package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/d60-Lab/techoh/config"
	"github.com/d60-Lab/techoh/internal/storage"
	"github.com/d60-Lab/techoh/pkg/logger"
)

// InitDB 按 storage.driver 打开 gorm 连接（sqlite/postgres/mysql）
func InitDB(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Storage.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.Storage.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.Storage.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.Storage.DSN)
	default:
		return nil, fmt.Errorf("driver %q is not a sql driver", cfg.Storage.Driver)
	}

	level := gormlogger.Silent
	if cfg.Log.Level == "debug" {
		level = gormlogger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(level)})
	if err != nil {
		logger.Error("failed to connect database", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Storage.Driver == "sqlite" {
		// sqlite 单写者，避免 database is locked
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}
	logger.Info("connect database success", zap.String("driver", cfg.Storage.Driver))
	return db, nil
}

// InitRedis 连接 redis 并 ping 一次
func InitRedis(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		logger.Error("connect redis error", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	logger.Info("redis client success", zap.String("addr", cfg.Redis.Addr))
	return client, nil
}

// OpenMedium 根据配置构造存储介质
func OpenMedium(cfg *config.Config) (storage.Medium, error) {
	switch cfg.Storage.Driver {
	case "memory":
		return storage.NewMemoryMedium(cfg.Storage.QuotaBytes), nil
	case "redis":
		client, err := InitRedis(cfg)
		if err != nil {
			return nil, err
		}
		return storage.NewRedisMedium(client), nil
	default:
		db, err := InitDB(cfg)
		if err != nil {
			return nil, err
		}
		return storage.NewGormMedium(db)
	}
}

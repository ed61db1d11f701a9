package main

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/d60-Lab/techoh/config"
	"github.com/d60-Lab/techoh/internal/api/handler"
	"github.com/d60-Lab/techoh/internal/feedcache"
	"github.com/d60-Lab/techoh/internal/repository"
	"github.com/d60-Lab/techoh/internal/service"
	"github.com/d60-Lab/techoh/internal/storage"
	"github.com/d60-Lab/techoh/pkg/database"
	"github.com/d60-Lab/techoh/pkg/logger"
)

// initApp 组装存储、写入者、服务与缓存；返回的 cleanup 按相反顺序释放
func initApp(cfg *config.Config) (*handler.Handler, func(), error) {
	medium, err := database.OpenMedium(cfg)
	if err != nil {
		return nil, nil, err
	}

	var tp *sdktrace.TracerProvider
	if cfg.Trace.Enabled {
		tp = sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spanLogger{}))
		medium = storage.Traced(medium, tp)
	}

	store := repository.NewStore(medium, repository.Options{
		Prefix:     cfg.Storage.Prefix,
		CompatMode: cfg.Storage.CompatMode,
		MaxRetries: cfg.Storage.MaxRetries,
	})
	if cfg.Storage.CompatMode {
		logger.Warn("compat mode: version checks disabled, concurrent writers may lose updates")
	}
	if err := store.Init(context.Background()); err != nil {
		_ = store.Close()
		return nil, nil, err
	}

	writer := service.NewWriter(cfg.Writer.QueueSize)
	stopWriter := writer.Start()

	deps := service.Deps{Store: store, Writer: writer, Hooks: &service.Hooks{}, Now: time.Now}
	relations := service.NewRelationshipService(deps)
	articles := service.NewArticleService(deps, relations)

	var cacheClient *redis.Client
	if cfg.Cache.Enabled {
		if cacheClient, err = database.InitRedis(cfg); err != nil {
			logger.Warn("feed cache disabled", zap.Error(err))
			cacheClient = nil
		}
	}
	feed := feedcache.New(cacheClient, articles, cfg.Cache.TTL, cfg.Storage.Prefix)
	deps.Hooks.Subscribe(feed)

	h := handler.NewHandler(store, handler.Services{
		Sessions:  service.NewSessionService(deps, cfg.Auth.VerifyPassword),
		Relations: relations,
		Articles:  articles,
		Profiles:  service.NewProfileService(deps),
	}, feed)

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := stopWriter(ctx); err != nil {
			logger.Warn("writer stop", zap.Error(err))
		}
		if cacheClient != nil {
			_ = cacheClient.Close()
		}
		if err := store.Close(); err != nil {
			logger.Warn("store close", zap.Error(err))
		}
		if tp != nil {
			_ = tp.Shutdown(ctx)
		}
	}
	return h, cleanup, nil
}

// spanLogger 把结束的 span 以 debug 级别写入日志
type spanLogger struct{}

func (spanLogger) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

func (spanLogger) OnEnd(s sdktrace.ReadOnlySpan) {
	logger.Debug("span",
		zap.String("name", s.Name()),
		zap.Duration("took", s.EndTime().Sub(s.StartTime())),
		zap.String("status", s.Status().Code.String()),
	)
}

func (spanLogger) Shutdown(context.Context) error   { return nil }
func (spanLogger) ForceFlush(context.Context) error { return nil }

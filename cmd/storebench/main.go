package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/d60-Lab/techoh/config"
	"github.com/d60-Lab/techoh/internal/model"
	"github.com/d60-Lab/techoh/internal/repository"
	"github.com/d60-Lab/techoh/internal/service"
	"github.com/d60-Lab/techoh/internal/storage"
	"github.com/d60-Lab/techoh/pkg/database"
	"github.com/d60-Lab/techoh/pkg/logger"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// mode 一种写入策略
type mode struct {
	name      string
	compat    bool
	useWriter bool
}

type result struct {
	mode      string
	views     int
	conflicts int64
	failures  int64
	total     time.Duration
	lat       []time.Duration
}

func main() {
	cfg := must(config.Load())
	logger.Init("error")
	// 默认不碰真实数据文件
	if os.Getenv("TECHOH_STORAGE_DRIVER") == "" {
		cfg.Storage.Driver = "memory"
	}
	medium := must(database.OpenMedium(cfg))
	defer medium.Close()

	N := envInt("N", 2000)
	CONC := envInt("CONC", 8)

	modes := []mode{
		{name: "writer", useWriter: true},
		{name: "strict", useWriter: false},
		{name: "compat", compat: true},
	}
	fmt.Printf("medium=%s N=%d CONC=%d max_retries=%d\n", cfg.Storage.Driver, N, CONC, cfg.Storage.MaxRetries)
	for _, m := range modes {
		r := bench(medium, cfg, m, N, CONC)
		lost := N - r.views - int(r.failures)
		fmt.Printf("[%s] views=%d/%d lost=%d conflicts=%d failed=%d total=%v p50=%v p95=%v p99=%v\n",
			r.mode, r.views, N, lost, r.conflicts, r.failures, r.total,
			pct(r.lat, 0.50), pct(r.lat, 0.95), pct(r.lat, 0.99))
	}
}

// bench 每种模式使用独立前缀，互不干扰
func bench(medium storage.Medium, cfg *config.Config, m mode, n, conc int) result {
	ctx := context.Background()
	prefix := fmt.Sprintf("%sbench-%s-%d-", cfg.Storage.Prefix, m.name, time.Now().UnixNano())
	store := repository.NewStore(medium, repository.Options{
		Prefix:     prefix,
		CompatMode: m.compat,
		MaxRetries: cfg.Storage.MaxRetries,
	})
	if err := store.Init(ctx); err != nil {
		panic(err)
	}

	var writer *service.Writer
	stop := func(context.Context) error { return nil }
	if m.useWriter {
		writer = service.NewWriter(cfg.Writer.QueueSize)
		stop = writer.Start()
	}
	defer stop(ctx)

	deps := service.Deps{Store: store, Writer: writer, Now: time.Now}
	relations := service.NewRelationshipService(deps)
	articles := service.NewArticleService(deps, relations)
	sessions := service.NewSessionService(deps, false)

	author := must(sessions.Register(ctx, service.RegisterInput{Name: "Bench", Email: "bench@example.com"}))
	article := must(articles.Publish(ctx, author.ID, service.ArticleInput{Title: "bench", Content: "bench body"}))

	var conflicts, failures atomic.Int64
	lat := make([]time.Duration, n)
	p := pool.New().WithMaxGoroutines(conc)
	t0 := time.Now()
	for i := 0; i < n; i++ {
		p.Go(func() {
			st := time.Now()
			if _, err := relations.RecordView(ctx, article.ID); err != nil {
				failures.Add(1)
				if errors.Is(err, storage.ErrConflict) {
					conflicts.Add(1)
				}
			}
			lat[i] = time.Since(st)
		})
	}
	p.Wait()
	total := time.Since(t0)

	final := must(repository.NewCollection[model.Article](store, repository.CollectionArticles).Find(ctx, article.ID))
	return result{
		mode:      m.name,
		views:     final.ViewsCount,
		conflicts: conflicts.Load(),
		failures:  failures.Load(),
		total:     total,
		lat:       lat,
	}
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 {
		k = 0
	}
	if k >= len(xs) {
		k = len(xs) - 1
	}
	return xs[k]
}

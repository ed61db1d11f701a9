package feedcache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/d60-Lab/techoh/internal/model"
	"github.com/d60-Lab/techoh/internal/query"
	"github.com/d60-Lab/techoh/pkg/logger"
)

// Feed 列表视图
type Feed string

const (
	Latest   Feed = "latest"
	Top      Feed = "top"
	Trending Feed = "trending"
)

var ErrUnknownFeed = errors.New("unknown feed")

var feeds = []Feed{Latest, Top, Trending}

// Source 文章的权威来源（文档存储）
type Source interface {
	Articles(ctx context.Context) ([]model.Article, error)
}

// Cache 把排好序的文章 id 列表存成 redis list，分页走 LRANGE；
// 文章内容始终从 Source 读取，缓存只保存顺序。client 为 nil 时直接回源。
type Cache struct {
	client *redis.Client
	src    Source
	ttl    time.Duration
	prefix string
	group  singleflight.Group
	gen    atomic.Int64

	rebuilds atomic.Int64
	hits     atomic.Int64
}

func New(client *redis.Client, src Source, ttl time.Duration, prefix string) *Cache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Cache{client: client, src: src, ttl: ttl, prefix: prefix}
}

func (c *Cache) key(feed Feed) string { return fmt.Sprintf("%sfeed:%s", c.prefix, feed) }

// Page 返回 feed 的第 page 页（从 1 开始）
func (c *Cache) Page(ctx context.Context, feed Feed, page, size int) ([]model.Article, error) {
	if !known(feed) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFeed, feed)
	}
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 10
	}
	if c.client == nil {
		return c.direct(ctx, feed, page, size)
	}

	key := c.key(feed)
	start := int64((page - 1) * size)
	end := start + int64(size) - 1
	ids, err := c.client.LRange(ctx, key, start, end).Result()
	if err != nil {
		logger.Warn("feed cache read failed, falling back", zap.String("feed", string(feed)), zap.Error(err))
		return c.direct(ctx, feed, page, size)
	}
	if len(ids) == 0 {
		// 超出列表末尾的页也是命中，不能触发重建
		if n, err := c.client.Exists(ctx, key).Result(); err == nil && n > 0 {
			c.hits.Add(1)
			return []model.Article{}, nil
		}
		snap, err := c.rebuild(ctx, feed)
		if err != nil {
			return nil, err
		}
		return resolve(snap.articles, query.Paginate(snap.ids, page, size)), nil
	}

	c.hits.Add(1)
	articles, err := c.src.Articles(ctx)
	if err != nil {
		return nil, err
	}
	return resolve(articles, ids), nil
}

func (c *Cache) direct(ctx context.Context, feed Feed, page, size int) ([]model.Article, error) {
	articles, err := c.src.Articles(ctx)
	if err != nil {
		return nil, err
	}
	return query.Paginate(order(feed, articles), page, size), nil
}

type snapshot struct {
	ids      []string
	articles []model.Article
}

// rebuild 并发的 miss 只触发一次重建。源数据在 miss 之后读取；
// 期间若发生 Invalidate（gen 变化），不写入或立即删掉刚写的列表
func (c *Cache) rebuild(ctx context.Context, feed Feed) (snapshot, error) {
	gen := c.gen.Load()
	v, err, _ := c.group.Do(fmt.Sprintf("%s:%d", feed, gen), func() (any, error) {
		c.rebuilds.Add(1)
		articles, err := c.src.Articles(ctx)
		if err != nil {
			return snapshot{}, err
		}
		sorted := order(feed, articles)
		snap := snapshot{ids: make([]string, len(sorted)), articles: articles}
		for i, a := range sorted {
			snap.ids[i] = a.ID
		}
		if len(snap.ids) == 0 || c.gen.Load() != gen {
			return snap, nil
		}

		key := c.key(feed)
		pipe := c.client.TxPipeline()
		pipe.Del(ctx, key)
		pipe.RPush(ctx, key, toAny(snap.ids)...)
		pipe.Expire(ctx, key, c.ttl)
		if _, err := pipe.Exec(ctx); err != nil {
			logger.Warn("feed cache write failed", zap.String("feed", string(feed)), zap.Error(err))
			return snap, nil
		}
		if c.gen.Load() != gen {
			if err := c.client.Del(ctx, key).Err(); err != nil {
				logger.Warn("feed cache discard failed", zap.String("feed", string(feed)), zap.Error(err))
			}
		}
		return snap, nil
	})
	if err != nil {
		return snapshot{}, err
	}
	return v.(snapshot), nil
}

// Invalidate 删除全部 feed 列表；先推进 gen，进行中的重建据此放弃写入
func (c *Cache) Invalidate(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	c.gen.Add(1)
	keys := make([]string, len(feeds))
	for i, f := range feeds {
		keys[i] = c.key(f)
	}
	return c.client.Del(ctx, keys...).Err()
}

// ArticlesChanged 文章集合变化后失效缓存
func (c *Cache) ArticlesChanged(ctx context.Context) {
	if err := c.Invalidate(ctx); err != nil {
		logger.Warn("feed cache invalidate failed", zap.Error(err))
	}
}

// Counters 命中与重建次数
func (c *Cache) Counters() Counters {
	return Counters{Hits: c.hits.Load(), Rebuilds: c.rebuilds.Load()}
}

func (c *Cache) ResetCounters() {
	c.hits.Store(0)
	c.rebuilds.Store(0)
}

type Counters struct {
	Hits     int64
	Rebuilds int64
}

func order(feed Feed, articles []model.Article) []model.Article {
	published := query.Published(articles)
	switch feed {
	case Top:
		return query.SortByPopularity(published)
	case Trending:
		return query.SortByViews(published)
	default:
		return query.SortByRecency(published)
	}
}

func known(feed Feed) bool {
	for _, f := range feeds {
		if f == feed {
			return true
		}
	}
	return false
}

// resolve 按 ids 的顺序取文章，缓存里已被删除的 id 跳过
func resolve(articles []model.Article, ids []string) []model.Article {
	byID := make(map[string]model.Article, len(articles))
	for _, a := range articles {
		byID[a.ID] = a
	}
	out := make([]model.Article, 0, len(ids))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			out = append(out, a)
		}
	}
	return out
}

func toAny(strs []string) []any {
	out := make([]any, len(strs))
	for i, s := range strs {
		out[i] = s
	}
	return out
}

package feedcache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/techoh/internal/model"
)

type staticSource struct {
	mu       sync.Mutex
	articles []model.Article
}

func (s *staticSource) Articles(context.Context) ([]model.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Article(nil), s.articles...), nil
}

func (s *staticSource) set(articles []model.Article) {
	s.mu.Lock()
	s.articles = articles
	s.mu.Unlock()
}

// racingSource 第一次读取返回旧快照后，模拟一次并发写入完成并失效缓存
type racingSource struct {
	staticSource
	once    sync.Once
	onFirst func()
}

func (s *racingSource) Articles(ctx context.Context) ([]model.Article, error) {
	out, err := s.staticSource.Articles(ctx)
	s.once.Do(s.onFirst)
	return out, err
}

func sampleArticles() []model.Article {
	return []model.Article{
		{ID: "a", PublishDate: "Apr 18, 2025", LikesCount: 3, ViewsCount: 5},
		{ID: "b", PublishDate: "Apr 20, 2025", LikesCount: 1, ViewsCount: 50},
		{ID: "c", PublishDate: "Apr 19, 2025", LikesCount: 2, ViewsCount: 7},
		{ID: "d", PublishDate: "Apr 21, 2025", LikesCount: 9, IsDraft: true},
	}
}

func ids(articles []model.Article) []string {
	out := make([]string, len(articles))
	for i, a := range articles {
		out[i] = a.ID
	}
	return out
}

func newCache(t *testing.T, src Source) (*Cache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, src, time.Minute, "techoh-"), mr
}

func TestPage_OrdersAndSkipsDrafts(t *testing.T) {
	c, _ := newCache(t, &staticSource{articles: sampleArticles()})
	ctx := context.Background()

	latest, err := c.Page(ctx, Latest, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a"}, ids(latest))

	top, err := c.Page(ctx, Top, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "b"}, ids(top))

	trending, err := c.Page(ctx, Trending, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, ids(trending))

	_, err = c.Page(ctx, Feed("nope"), 1, 10)
	require.ErrorIs(t, err, ErrUnknownFeed)
}

func TestPage_SecondReadHitsCache(t *testing.T) {
	c, mr := newCache(t, &staticSource{articles: sampleArticles()})
	ctx := context.Background()

	_, err := c.Page(ctx, Latest, 1, 2)
	require.NoError(t, err)
	page2, err := c.Page(ctx, Latest, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(page2))

	assert.Equal(t, Counters{Hits: 1, Rebuilds: 1}, c.Counters())
	list, err := mr.List("techoh-feed:latest")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a"}, list)
	assert.Equal(t, time.Minute, mr.TTL("techoh-feed:latest"))
}

func TestArticlesChanged_Invalidates(t *testing.T) {
	src := &staticSource{articles: sampleArticles()}
	c, mr := newCache(t, src)
	ctx := context.Background()

	_, err := c.Page(ctx, Top, 1, 10)
	require.NoError(t, err)

	updated := sampleArticles()
	updated[1].LikesCount = 100
	src.set(updated)
	c.ArticlesChanged(ctx)
	assert.False(t, mr.Exists("techoh-feed:top"))

	top, err := c.Page(ctx, Top, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, ids(top))
	assert.EqualValues(t, 2, c.Counters().Rebuilds)
}

func TestPage_InvalidateDuringRebuildDoesNotCacheStaleOrder(t *testing.T) {
	src := &racingSource{staticSource: staticSource{articles: sampleArticles()}}
	c, mr := newCache(t, src)
	ctx := context.Background()
	src.onFirst = func() {
		updated := sampleArticles()
		updated[1].LikesCount = 100
		src.set(updated)
		c.ArticlesChanged(ctx)
	}

	_, err := c.Page(ctx, Top, 1, 10)
	require.NoError(t, err)
	assert.False(t, mr.Exists("techoh-feed:top"))

	top, err := c.Page(ctx, Top, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, ids(top))
	list, err := mr.List("techoh-feed:top")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, list)
}

func TestPage_PastEndIsHit(t *testing.T) {
	c, _ := newCache(t, &staticSource{articles: sampleArticles()})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		page, err := c.Page(ctx, Latest, 5, 10)
		require.NoError(t, err)
		assert.Empty(t, page)
	}
	assert.Equal(t, Counters{Hits: 2, Rebuilds: 1}, c.Counters())
}

func TestPage_DeletedArticleIsSkipped(t *testing.T) {
	src := &staticSource{articles: sampleArticles()}
	c, _ := newCache(t, src)
	ctx := context.Background()

	_, err := c.Page(ctx, Latest, 1, 10)
	require.NoError(t, err)
	src.set(sampleArticles()[:2])

	latest, err := c.Page(ctx, Latest, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, ids(latest))
}

func TestPage_DisabledCacheFallsThrough(t *testing.T) {
	c := New(nil, &staticSource{articles: sampleArticles()}, 0, "techoh-")
	latest, err := c.Page(context.Background(), Latest, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a"}, ids(latest))
	require.NoError(t, c.Invalidate(context.Background()))
	assert.Zero(t, c.Counters().Rebuilds)
}

func TestPage_RedisDownFallsThrough(t *testing.T) {
	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	c := New(client, &staticSource{articles: sampleArticles()}, time.Minute, "techoh-")
	top, err := c.Page(context.Background(), Top, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "b"}, ids(top))
}

package repository

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/d60-Lab/techoh/internal/model"
	"github.com/d60-Lab/techoh/internal/storage"
)

func setupBenchStore(b *testing.B, backend string) *Store {
	var m storage.Medium = storage.NewMemoryMedium(0)
	if backend == "sqlite" {
		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
		if err != nil {
			b.Fatalf("open db: %v", err)
		}
		sqlDB, _ := db.DB()
		sqlDB.SetMaxOpenConns(1)
		gm, err := storage.NewGormMedium(db)
		if err != nil {
			b.Fatalf("migrate: %v", err)
		}
		m = gm
	}
	s := NewStore(m, Options{MaxRetries: 1})
	if err := s.Init(context.Background()); err != nil {
		b.Fatalf("init: %v", err)
	}
	b.Cleanup(func() { _ = s.Close() })
	return s
}

// 集合整体存储：单条更新的开销随集合大小增长
func BenchmarkCollectionUpdate(b *testing.B) {
	for _, backend := range []string{"memory", "sqlite"} {
		for _, size := range []int{100, 1000} {
			b.Run(fmt.Sprintf("%s/%d", backend, size), func(b *testing.B) {
				s := setupBenchStore(b, backend)
				articles := NewCollection[model.Article](s, CollectionArticles)
				ctx := context.Background()

				seed := make([]model.Article, size)
				for i := range seed {
					seed[i] = model.Article{ID: fmt.Sprintf("a%04d", i), Title: "t", Content: "c"}
				}
				if err := articles.Save(ctx, seed); err != nil {
					b.Fatalf("seed: %v", err)
				}

				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					id := seed[rand.Intn(size)].ID
					if _, err := articles.Update(ctx, id, func(a *model.Article) error {
						a.ViewsCount++
						return nil
					}); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

func BenchmarkRelationToggle(b *testing.B) {
	s := setupBenchStore(b, "memory")
	liked := NewRelation(s, RelationLiked)
	ctx := context.Background()

	// 预置 1000 个用户各 20 条点赞
	set := model.NewRelationSet()
	for u := 0; u < 1000; u++ {
		for a := 0; a < 20; a++ {
			set.Add(fmt.Sprintf("u%04d", u), fmt.Sprintf("a%04d", rand.Intn(5000)))
		}
	}
	if err := s.Run(ctx, func(tx *Tx) error { return liked.Put(tx, set) }); err != nil {
		b.Fatalf("seed: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		user := fmt.Sprintf("u%04d", rand.Intn(1000))
		article := fmt.Sprintf("a%04d", rand.Intn(5000))
		err := s.Run(ctx, func(tx *Tx) error {
			set, err := liked.In(tx)
			if err != nil {
				return err
			}
			if !set.Add(user, article) {
				set.Remove(user, article)
			}
			return liked.Put(tx, set)
		})
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRelationContains(b *testing.B) {
	set := model.NewRelationSet()
	for u := 0; u < 1000; u++ {
		for a := 0; a < 100; a++ {
			set.Add(fmt.Sprintf("u%04d", u), fmt.Sprintf("a%04d", a))
		}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = set.Contains(fmt.Sprintf("u%04d", i%1000), "a0050")
	}
}

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/d60-Lab/techoh/internal/storage"
	"github.com/d60-Lab/techoh/pkg/logger"
)

var (
	// ErrNotFound 引用的记录不存在
	ErrNotFound = errors.New("record not found")
	// ErrCorrupt 键中的内容无法解码
	ErrCorrupt = errors.New("corrupt document")
)

// 集合与键名（不含前缀）
const (
	CollectionUsers       = "users"
	CollectionArticles    = "articles"
	CollectionComments    = "comments"
	CollectionCredentials = "credentials"
	RelationLiked         = "liked-articles"
	RelationSaved         = "saved-articles"
	RelationFollows       = "follows"
	KeySession            = "user"
)

var (
	initCollections = []string{CollectionUsers, CollectionArticles, CollectionComments}
	initRelations   = []string{RelationLiked, RelationSaved}
)

// Options 文档存储选项
type Options struct {
	Prefix string
	// CompatMode 整集合盲写，不做版本校验（复现多标签页的 lost update）
	CompatMode bool
	// MaxRetries 冲突后自动重试次数
	MaxRetries int
}

// Store 基于 Medium 的文档存储：命名集合 + 原子的读-改-写
type Store struct {
	medium storage.Medium
	opts   Options
}

func NewStore(medium storage.Medium, opts Options) *Store {
	if opts.Prefix == "" {
		opts.Prefix = "techoh-"
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	return &Store{medium: medium, opts: opts}
}

func (s *Store) Key(name string) string { return s.opts.Prefix + name }

func (s *Store) Medium() storage.Medium { return s.medium }

// Init 首次使用时把缺失的集合初始化为空；已存在的键不覆盖，可重复调用
func (s *Store) Init(ctx context.Context) error {
	for _, name := range initCollections {
		if err := s.initKey(ctx, name, []byte("[]")); err != nil {
			return err
		}
	}
	for _, name := range initRelations {
		if err := s.initKey(ctx, name, []byte("{}")); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) initKey(ctx context.Context, name string, empty []byte) error {
	key := s.Key(name)
	e, err := s.medium.Get(ctx, key)
	if err != nil {
		return err
	}
	if e.Exists() {
		return nil
	}
	// 墓碑的版本号不为 0，按读到的版本提交
	err = s.medium.Commit(ctx, storage.Write{Key: key, Value: empty, ExpectVersion: e.Version})
	if errors.Is(err, storage.ErrConflict) {
		return nil
	}
	if err == nil {
		logger.Debug("initialized collection", zap.String("key", key))
	}
	return err
}

// Run 在事务中执行 fn 并提交；版本冲突时重新执行，超过 MaxRetries 后返回 storage.ErrConflict
func (s *Store) Run(ctx context.Context, fn func(tx *Tx) error) error {
	for attempt := 0; ; attempt++ {
		tx := newTx(ctx, s)
		if err := fn(tx); err != nil {
			return err
		}
		err := tx.commit()
		if !errors.Is(err, storage.ErrConflict) || attempt >= s.opts.MaxRetries {
			return err
		}
		logger.Warn("write conflict, retrying", zap.Int("attempt", attempt+1), zap.Strings("keys", tx.keys()))
	}
}

// Snapshot 以通用 JSON 形式返回所有前缀键（导出用）
func (s *Store) Snapshot(ctx context.Context) (map[string]any, error) {
	keys, err := s.medium.Keys(ctx, s.opts.Prefix)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(keys))
	for _, key := range keys {
		e, err := s.medium.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if !e.Exists() {
			continue
		}
		var v any
		if err := json.Unmarshal(e.Value, &v); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
		}
		out[key] = v
	}
	return out, nil
}

// Close 关闭底层介质
func (s *Store) Close() error { return s.medium.Close() }

package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/d60-Lab/techoh/internal/storage"
)

// Record 集合中的记录需要提供 id
type Record interface {
	RecordID() string
}

// Collection 有序记录序列，整体存为一个键
type Collection[T Record] struct {
	store *Store
	name  string
}

func NewCollection[T Record](s *Store, name string) Collection[T] {
	return Collection[T]{store: s, name: name}
}

func (c Collection[T]) Name() string { return c.name }

func (c Collection[T]) key() string { return c.store.Key(c.name) }

// Load 返回集合内容；键不存在时返回空序列，不报错
func (c Collection[T]) Load(ctx context.Context) ([]T, error) {
	e, err := c.store.medium.Get(ctx, c.key())
	if err != nil {
		return nil, err
	}
	records := []T{}
	if !e.Exists() || len(e.Value) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(e.Value, &records); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, c.key(), err)
	}
	return records, nil
}

// Save 整体覆盖集合（调用方需自行保证读-改-写的排他性）
func (c Collection[T]) Save(ctx context.Context, records []T) error {
	if records == nil {
		records = []T{}
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return err
	}
	return c.store.medium.Commit(ctx, storage.Write{Key: c.key(), Value: raw, ExpectVersion: storage.AnyVersion})
}

// Append 读取、追加、保存
func (c Collection[T]) Append(ctx context.Context, record T) error {
	return c.store.Run(ctx, func(tx *Tx) error {
		records, err := c.In(tx)
		if err != nil {
			return err
		}
		return c.Put(tx, append(records, record))
	})
}

// Update 修改 id 对应的记录；不存在时返回 ErrNotFound，不会创建
func (c Collection[T]) Update(ctx context.Context, id string, mutator func(*T) error) (T, error) {
	var out T
	err := c.store.Run(ctx, func(tx *Tx) error {
		records, err := c.In(tx)
		if err != nil {
			return err
		}
		i := IndexOf(records, id)
		if i < 0 {
			return fmt.Errorf("%s %s: %w", c.name, id, ErrNotFound)
		}
		if err := mutator(&records[i]); err != nil {
			return err
		}
		out = records[i]
		return c.Put(tx, records)
	})
	return out, err
}

// Upsert 与 Update 相同，但记录不存在时用 factory 创建后再应用 mutator
func (c Collection[T]) Upsert(ctx context.Context, id string, mutator func(*T) error, factory func() T) (T, error) {
	var out T
	err := c.store.Run(ctx, func(tx *Tx) error {
		records, err := c.In(tx)
		if err != nil {
			return err
		}
		i := IndexOf(records, id)
		if i < 0 {
			records = append(records, factory())
			i = len(records) - 1
		}
		if err := mutator(&records[i]); err != nil {
			return err
		}
		out = records[i]
		return c.Put(tx, records)
	})
	return out, err
}

// Find 按 id 查找单条记录
func (c Collection[T]) Find(ctx context.Context, id string) (T, error) {
	var zero T
	records, err := c.Load(ctx)
	if err != nil {
		return zero, err
	}
	i := IndexOf(records, id)
	if i < 0 {
		return zero, fmt.Errorf("%s %s: %w", c.name, id, ErrNotFound)
	}
	return records[i], nil
}

// In 在事务内读取集合
func (c Collection[T]) In(tx *Tx) ([]T, error) {
	records := []T{}
	if _, err := tx.read(c.key(), &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Put 在事务内暂存整个集合
func (c Collection[T]) Put(tx *Tx, records []T) error {
	if records == nil {
		records = []T{}
	}
	return tx.stage(c.key(), records)
}

// IndexOf 返回 id 所在下标，不存在返回 -1
func IndexOf[T Record](records []T, id string) int {
	for i := range records {
		if records[i].RecordID() == id {
			return i
		}
	}
	return -1
}

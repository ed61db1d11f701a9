package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/d60-Lab/techoh/internal/storage"
)

// Tx 一次逻辑操作：先读取涉及的键，修改后一次性提交
type Tx struct {
	ctx      context.Context
	store    *Store
	versions map[string]int64
	staged   map[string][]byte
}

func newTx(ctx context.Context, s *Store) *Tx {
	return &Tx{
		ctx:      ctx,
		store:    s,
		versions: map[string]int64{},
		staged:   map[string][]byte{},
	}
}

func (tx *Tx) Context() context.Context { return tx.ctx }

// read 解码 key 到 into；返回键是否存在。同一事务内读到自己暂存的值
func (tx *Tx) read(key string, into any) (bool, error) {
	raw, ok := tx.staged[key]
	if !ok {
		e, err := tx.store.medium.Get(tx.ctx, key)
		if err != nil {
			return false, err
		}
		if _, seen := tx.versions[key]; !seen {
			tx.versions[key] = e.Version
		}
		if !e.Exists() || len(e.Value) == 0 {
			return false, nil
		}
		raw = e.Value
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	return true, nil
}

func (tx *Tx) stage(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := tx.track(key); err != nil {
		return err
	}
	tx.staged[key] = raw
	return nil
}

// track 未读先写的键也要记录版本，否则无法做冲突检测
func (tx *Tx) track(key string) error {
	if _, seen := tx.versions[key]; seen {
		return nil
	}
	e, err := tx.store.medium.Get(tx.ctx, key)
	if err != nil {
		return err
	}
	tx.versions[key] = e.Version
	return nil
}

func (tx *Tx) keys() []string {
	keys := make([]string, 0, len(tx.staged))
	for k := range tx.staged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// commit 提交暂存的写；只读过的键作为 Check 一并提交，
// 保证事务依据的读集在提交时未被修改
func (tx *Tx) commit() error {
	keys := tx.keys()
	if len(keys) == 0 {
		return nil
	}
	compat := tx.store.opts.CompatMode
	writes := make([]storage.Write, 0, len(tx.versions))
	for _, k := range keys {
		expect := tx.versions[k]
		if compat {
			expect = storage.AnyVersion
		}
		writes = append(writes, storage.Write{
			Key:           k,
			Value:         tx.staged[k],
			ExpectVersion: expect,
		})
	}
	if !compat {
		writes = append(writes, tx.readSet()...)
	}
	return tx.store.medium.Commit(tx.ctx, writes...)
}

func (tx *Tx) readSet() []storage.Write {
	var checks []storage.Write
	for k, ver := range tx.versions {
		if _, ok := tx.staged[k]; ok {
			continue
		}
		checks = append(checks, storage.Write{Key: k, ExpectVersion: ver, Check: true})
	}
	sort.Slice(checks, func(i, j int) bool { return checks[i].Key < checks[j].Key })
	return checks
}

// Package storage 提供带版本号的键值存储介质，是文档存储的底层。
package storage

import (
	"context"
	"errors"
)

var (
	// ErrConflict 版本校验失败（另一写入者先提交）
	ErrConflict = errors.New("storage: version conflict")
	// ErrUnavailable 介质已满或不可用
	ErrUnavailable = errors.New("storage: unavailable")
)

// AnyVersion 跳过版本校验的盲写
const AnyVersion int64 = -1

// Entry 一个键的当前值。Version 单调递增，删除也会递增并留下墓碑，
// 所以被删除的键 Version 可以大于 0，但 Value 为 nil；从未写过的键 Version 为 0。
type Entry struct {
	Key     string
	Value   []byte
	Version int64
}

func (e Entry) Exists() bool { return e.Value != nil }

// Write 一次提交中的单个写操作。Check 只校验版本、不写入（事务读集）
type Write struct {
	Key           string
	Value         []byte
	ExpectVersion int64
	Delete        bool
	Check         bool
}

// Medium 存储介质；Commit 中的所有写要么全部生效要么全部不生效
type Medium interface {
	Get(ctx context.Context, key string) (Entry, error)
	Keys(ctx context.Context, prefix string) ([]string, error)
	Commit(ctx context.Context, writes ...Write) error
	Close() error
}

func writeKeys(writes []Write) []string {
	keys := make([]string, len(writes))
	for i, w := range writes {
		keys[i] = w.Key
	}
	return keys
}

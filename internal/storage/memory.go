package storage

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryMedium 进程内介质，可设置字节配额模拟浏览器存储上限
type MemoryMedium struct {
	mu       sync.Mutex
	data     map[string]Entry
	quota    int
	used     int
	disabled bool
}

func NewMemoryMedium(quotaBytes int) *MemoryMedium {
	return &MemoryMedium{data: make(map[string]Entry), quota: quotaBytes}
}

// SetDisabled 模拟介质被禁用：之后的写入全部返回 ErrUnavailable
func (m *MemoryMedium) SetDisabled(disabled bool) {
	m.mu.Lock()
	m.disabled = disabled
	m.mu.Unlock()
}

func (m *MemoryMedium) Get(ctx context.Context, key string) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.data[key]
	if !ok {
		return Entry{Key: key}, nil
	}
	e.Value = bytes.Clone(e.Value)
	return e, nil
}

func (m *MemoryMedium) Keys(ctx context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k, e := range m.data {
		if e.Value != nil && strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryMedium) Commit(ctx context.Context, writes ...Write) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disabled {
		return ErrUnavailable
	}

	final := make(map[string]int, len(writes))
	for _, w := range writes {
		if w.ExpectVersion != AnyVersion && m.data[w.Key].Version != w.ExpectVersion {
			return ErrConflict
		}
		if w.Check {
			continue
		}
		if w.Delete {
			final[w.Key] = 0
		} else {
			final[w.Key] = len(w.Key) + len(w.Value)
		}
	}
	used := m.used
	for key, size := range final {
		if cur, ok := m.data[key]; ok && cur.Value != nil {
			used -= len(key) + len(cur.Value)
		}
		used += size
	}
	if m.quota > 0 && used > m.quota {
		return ErrUnavailable
	}

	for _, w := range writes {
		if w.Check {
			continue
		}
		cur, ok := m.data[w.Key]
		if w.Delete {
			if ok {
				// 墓碑：保留版本号，重新创建时版本继续递增
				m.data[w.Key] = Entry{Key: w.Key, Version: cur.Version + 1}
			}
			continue
		}
		value := bytes.Clone(w.Value)
		if value == nil {
			value = []byte{}
		}
		m.data[w.Key] = Entry{Key: w.Key, Value: value, Version: cur.Version + 1}
	}
	m.used = used
	return nil
}

func (m *MemoryMedium) Close() error { return nil }

package storage

import (
	"context"
	"errors"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const (
	fieldValue   = "v"
	fieldVersion = "ver"
)

// RedisMedium 每个键存为 hash {v, ver}；Commit 使用 WATCH/MULTI 做乐观并发。
// 删除只去掉 v 字段并递增 ver，版本号不会回退
type RedisMedium struct {
	client *redis.Client
}

func NewRedisMedium(client *redis.Client) *RedisMedium {
	return &RedisMedium{client: client}
}

func (m *RedisMedium) Get(ctx context.Context, key string) (Entry, error) {
	vals, err := m.client.HMGet(ctx, key, fieldValue, fieldVersion).Result()
	if err != nil {
		return Entry{}, unavailable(err)
	}
	ver, err := parseVersion(vals[1])
	if err != nil {
		return Entry{}, unavailable(err)
	}
	e := Entry{Key: key, Version: ver}
	if value, ok := vals[0].(string); ok && ver > 0 {
		e.Value = []byte(value)
	}
	return e, nil
}

func (m *RedisMedium) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := m.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, unavailable(err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	// 过滤墓碑
	cmds := make([]*redis.BoolCmd, len(keys))
	if _, err := m.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, k := range keys {
			cmds[i] = pipe.HExists(ctx, k, fieldValue)
		}
		return nil
	}); err != nil {
		return nil, unavailable(err)
	}
	live := keys[:0]
	for i, k := range keys {
		if cmds[i].Val() {
			live = append(live, k)
		}
	}
	sort.Strings(live)
	return live, nil
}

func (m *RedisMedium) Commit(ctx context.Context, writes ...Write) error {
	keys := writeKeys(writes)
	err := m.client.Watch(ctx, func(tx *redis.Tx) error {
		current := make(map[string]int64, len(writes))
		for _, w := range writes {
			if _, seen := current[w.Key]; seen {
				continue
			}
			ver, err := tx.HGet(ctx, w.Key, fieldVersion).Int64()
			if err != nil && !errors.Is(err, redis.Nil) {
				return err
			}
			current[w.Key] = ver
		}
		for _, w := range writes {
			if w.ExpectVersion != AnyVersion && current[w.Key] != w.ExpectVersion {
				return ErrConflict
			}
		}
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, w := range writes {
				switch {
				case w.Check:
					continue
				case w.Delete:
					if current[w.Key] == 0 {
						continue
					}
					current[w.Key]++
					pipe.HDel(ctx, w.Key, fieldValue)
					pipe.HSet(ctx, w.Key, fieldVersion, current[w.Key])
					continue
				}
				current[w.Key]++
				pipe.HSet(ctx, w.Key, fieldValue, w.Value, fieldVersion, current[w.Key])
			}
			return nil
		})
		return err
	}, keys...)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrConflict), errors.Is(err, redis.TxFailedErr):
		return ErrConflict
	default:
		return unavailable(err)
	}
}

func (m *RedisMedium) Close() error { return m.client.Close() }

func parseVersion(v any) (int64, error) {
	s, ok := v.(string)
	if !ok || s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/d60-Lab/techoh/internal/model"
	"github.com/d60-Lab/techoh/internal/storage"
)

// SessionKey 当前会话用户指针，存为单条 User 记录；不存在即匿名
type SessionKey struct {
	store *Store
}

func NewSessionKey(s *Store) SessionKey { return SessionKey{store: s} }

func (k SessionKey) key() string { return k.store.Key(KeySession) }

func (k SessionKey) Get(ctx context.Context) (*model.User, error) {
	e, err := k.store.medium.Get(ctx, k.key())
	if err != nil {
		return nil, err
	}
	if !e.Exists() {
		return nil, nil
	}
	var u model.User
	if err := json.Unmarshal(e.Value, &u); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, k.key(), err)
	}
	return &u, nil
}

func (k SessionKey) Set(ctx context.Context, u model.User) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return k.store.medium.Commit(ctx, storage.Write{Key: k.key(), Value: raw, ExpectVersion: storage.AnyVersion})
}

func (k SessionKey) Clear(ctx context.Context) error {
	return k.store.medium.Commit(ctx, storage.Write{Key: k.key(), Delete: true, ExpectVersion: storage.AnyVersion})
}

// In 事务内读取会话用户
func (k SessionKey) In(tx *Tx) (*model.User, error) {
	var u model.User
	ok, err := tx.read(k.key(), &u)
	if err != nil || !ok {
		return nil, err
	}
	return &u, nil
}

// Put 事务内写入会话用户
func (k SessionKey) Put(tx *Tx, u model.User) error {
	return tx.stage(k.key(), u)
}

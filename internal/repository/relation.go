package repository

import (
	"context"

	"github.com/d60-Lab/techoh/internal/model"
)

// Relation 按用户划分的关系集（点赞、收藏、关注）
type Relation struct {
	store *Store
	name  string
}

func NewRelation(s *Store, name string) Relation {
	return Relation{store: s, name: name}
}

func (r Relation) key() string { return r.store.Key(r.name) }

func (r Relation) Load(ctx context.Context) (*model.RelationSet, error) {
	var set *model.RelationSet
	err := r.store.Run(ctx, func(tx *Tx) error {
		var err error
		set, err = r.In(tx)
		return err
	})
	return set, err
}

func (r Relation) In(tx *Tx) (*model.RelationSet, error) {
	set := model.NewRelationSet()
	if _, err := tx.read(r.key(), set); err != nil {
		return nil, err
	}
	return set, nil
}

func (r Relation) Put(tx *Tx, set *model.RelationSet) error {
	return tx.stage(r.key(), set)
}

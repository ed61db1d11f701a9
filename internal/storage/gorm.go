package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/techoh/internal/model"
)

// GormMedium 以 documents 表存储，每行一个键，version 列做乐观并发控制
type GormMedium struct {
	db *gorm.DB
}

// NewGormMedium 创建介质并初始化表结构
func NewGormMedium(db *gorm.DB) (*GormMedium, error) {
	m := &GormMedium{db: db}
	if err := m.InitSchema(); err != nil {
		return nil, err
	}
	return m, nil
}

// InitSchema 初始化 documents 表
func (m *GormMedium) InitSchema() error {
	if err := m.db.AutoMigrate(&model.Document{}); err != nil {
		return fmt.Errorf("failed to migrate documents table: %w", err)
	}
	return nil
}

func (m *GormMedium) Get(ctx context.Context, key string) (Entry, error) {
	var doc model.Document
	err := m.db.WithContext(ctx).Where("doc_key = ?", key).Limit(1).Find(&doc).Error
	if err != nil {
		return Entry{}, unavailable(err)
	}
	if doc.Version == 0 {
		return Entry{Key: key}, nil
	}
	if doc.Deleted {
		return Entry{Key: key, Version: doc.Version}, nil
	}
	value := []byte(doc.Value)
	if value == nil {
		value = []byte{}
	}
	return Entry{Key: key, Value: value, Version: doc.Version}, nil
}

func (m *GormMedium) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := m.db.WithContext(ctx).
		Model(&model.Document{}).
		Where("doc_key LIKE ? AND deleted = ?", prefix+"%", false).
		Order("doc_key").
		Pluck("doc_key", &keys).Error
	if err != nil {
		return nil, unavailable(err)
	}
	return keys, nil
}

// Commit 在一个事务内应用全部写；任一版本不匹配则回滚并返回 ErrConflict
func (m *GormMedium) Commit(ctx context.Context, writes ...Write) error {
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, w := range writes {
			if err := applyWrite(tx, w); err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil || errors.Is(err, ErrConflict) {
		return err
	}
	return unavailable(err)
}

func applyWrite(tx *gorm.DB, w Write) error {
	switch {
	case w.Check:
		return checkVersion(tx, w)

	case w.Delete:
		if w.ExpectVersion == 0 {
			return expectAbsent(tx, w.Key)
		}
		q := tx.Model(&model.Document{}).Where("doc_key = ?", w.Key)
		if w.ExpectVersion > 0 {
			q = q.Where("version = ?", w.ExpectVersion)
		}
		res := q.Updates(map[string]any{
			"value":   nil,
			"deleted": true,
			"version": gorm.Expr("version + 1"),
		})
		if res.Error != nil {
			return res.Error
		}
		if w.ExpectVersion > 0 && res.RowsAffected == 0 {
			return ErrConflict
		}
		return nil

	case w.ExpectVersion == AnyVersion:
		doc := &model.Document{Key: w.Key, Value: datatypes.JSON(w.Value), Version: 1}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "doc_key"}},
			DoUpdates: clause.Assignments(map[string]any{
				"value":      datatypes.JSON(w.Value),
				"deleted":    false,
				"version":    gorm.Expr("documents.version + 1"),
				"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
			}),
		}).Create(doc).Error

	case w.ExpectVersion == 0:
		// 幂等：键已存在（含墓碑）时不覆盖，视为冲突
		doc := &model.Document{Key: w.Key, Value: datatypes.JSON(w.Value), Version: 1}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(doc)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}
		return nil

	default:
		res := tx.Model(&model.Document{}).
			Where("doc_key = ? AND version = ?", w.Key, w.ExpectVersion).
			Updates(map[string]any{
				"value":   datatypes.JSON(w.Value),
				"deleted": false,
				"version": gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}
		return nil
	}
}

// checkVersion 只校验版本，不写入
func checkVersion(tx *gorm.DB, w Write) error {
	if w.ExpectVersion == AnyVersion {
		return nil
	}
	var versions []int64
	if err := tx.Model(&model.Document{}).Where("doc_key = ?", w.Key).Limit(1).Pluck("version", &versions).Error; err != nil {
		return err
	}
	var cur int64
	if len(versions) > 0 {
		cur = versions[0]
	}
	if cur != w.ExpectVersion {
		return ErrConflict
	}
	return nil
}

func expectAbsent(tx *gorm.DB, key string) error {
	var cnt int64
	if err := tx.Model(&model.Document{}).Where("doc_key = ?", key).Count(&cnt).Error; err != nil {
		return err
	}
	if cnt > 0 {
		return ErrConflict
	}
	return nil
}

// Close 关闭数据库连接
func (m *GormMedium) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

package model

import (
	"time"

	"gorm.io/datatypes"
)

// Document 存储介质中的一个键（对应一个集合或关系集）。
// 删除为软删除：Deleted 置位、version 继续递增
type Document struct {
	Key       string         `gorm:"column:doc_key;primaryKey;type:varchar(191)"`
	Value     datatypes.JSON `gorm:"column:value"`
	Version   int64          `gorm:"column:version;not null;default:0"`
	Deleted   bool           `gorm:"column:deleted;not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Document) TableName() string { return "documents" }

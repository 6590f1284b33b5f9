package db

import (
	"time"

	"gorm.io/gorm"
)

// APIKey 定义了 API 密钥模型。完整密钥仅在签发时返回一次，
// 数据库中只保存其 SHA-256 哈希与用于展示的前缀。
type APIKey struct {
	gorm.Model
	TenantID   uint   `gorm:"index;not null"`
	Name       string `gorm:"size:200;not null"`
	Prefix     string `gorm:"size:16;not null"`
	Hash       string `gorm:"size:64;uniqueIndex;not null"`
	LastUsedAt *time.Time
}

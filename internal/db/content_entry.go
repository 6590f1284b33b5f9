package db

import "gorm.io/gorm"

// ContentEntry 定义了内容条目模型，data 为松散耦合的键值负载。
type ContentEntry struct {
	gorm.Model
	TenantID      uint    `gorm:"index;not null"`
	ContentTypeID uint    `gorm:"index;not null"`
	Data          JSONMap `gorm:"type:text"`
	IsVisible     bool    `gorm:"default:true"`
}

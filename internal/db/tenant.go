package db

import "gorm.io/gorm"

// Tenant 定义了租户模型，每个注册账号拥有一个独立租户。
type Tenant struct {
	gorm.Model
	Name string `gorm:"size:200;not null"`
}

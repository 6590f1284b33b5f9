package db

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User 定义了用户模型
type User struct {
	gorm.Model
	TenantID uint `gorm:"index;not null"`
	Tenant   Tenant
	Email    string `gorm:"unique;not null"`
	Password string `gorm:"not null"`
	Name     string
}

// EnsureUser 存在性检查：若提供的邮箱与密码均非空且不存在对应账号，
// 则创建一个 bcrypt 哈希的引导用户及其租户。
func EnsureUser(email, password string) error {
	trimmedEmail := strings.TrimSpace(email)
	trimmedPassword := strings.TrimSpace(password)
	if trimmedEmail == "" || trimmedPassword == "" {
		return nil
	}

	if DB == nil {
		return errors.New("database not initialized")
	}

	var existing User
	if err := DB.Where("email = ?", trimmedEmail).First(&existing).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(trimmedPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		tenant := Tenant{Name: trimmedEmail}
		if err := DB.Create(&tenant).Error; err != nil {
			return err
		}

		return DB.Create(&User{TenantID: tenant.ID, Email: trimmedEmail, Password: string(hashed)}).Error
	}

	return nil
}

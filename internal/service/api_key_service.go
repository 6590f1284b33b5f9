package service

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/cmaas/internal/db"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrAPIKeyNotFound     = errors.New("api key not found")
	ErrAPIKeyNameRequired = errors.New("api key name is required")
	ErrAPIKeyInvalid      = errors.New("invalid api key")
)

// keyPrefix marks issued keys so they are recognizable in configuration.
const keyPrefix = "cmk_"

// APIKeyService issues and verifies tenant API keys. Only a SHA-256 hash
// is stored; the full key is returned exactly once at issue time.
type APIKeyService struct {
	db *gorm.DB
}

// NewAPIKeyService creates an APIKeyService instance.
func NewAPIKeyService(gdb *gorm.DB) *APIKeyService {
	return &APIKeyService{db: gdb}
}

// Issue creates a key for the tenant and returns the record plus the full
// secret.
func (s *APIKeyService) Issue(tenantID uint, name string) (db.APIKey, string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return db.APIKey{}, "", ErrAPIKeyNameRequired
	}

	secret := keyPrefix + strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
	key := db.APIKey{
		TenantID: tenantID,
		Name:     trimmed,
		Prefix:   secret[:12],
		Hash:     hashKey(secret),
	}
	if err := s.db.Create(&key).Error; err != nil {
		return db.APIKey{}, "", err
	}
	return key, secret, nil
}

// List returns the tenant's keys, newest first. Hashes are storage detail;
// callers expose only name and prefix.
func (s *APIKeyService) List(tenantID uint) ([]db.APIKey, error) {
	var keys []db.APIKey
	if err := s.db.Where("tenant_id = ?", tenantID).Order("created_at desc").Find(&keys).Error; err != nil {
		return nil, err
	}
	return keys, nil
}

// Revoke deletes one key scoped to the tenant.
func (s *APIKeyService) Revoke(tenantID, id uint) error {
	result := s.db.Where("tenant_id = ?", tenantID).Delete(&db.APIKey{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAPIKeyNotFound
	}
	return nil
}

// Verify resolves a presented secret to its key record and stamps the
// last-used time.
func (s *APIKeyService) Verify(secret string) (db.APIKey, error) {
	trimmed := strings.TrimSpace(secret)
	if trimmed == "" || !strings.HasPrefix(trimmed, keyPrefix) {
		return db.APIKey{}, ErrAPIKeyInvalid
	}

	var key db.APIKey
	err := s.db.Where("hash = ?", hashKey(trimmed)).First(&key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.APIKey{}, ErrAPIKeyInvalid
	}
	if err != nil {
		return db.APIKey{}, err
	}

	now := time.Now()
	s.db.Model(&key).Update("last_used_at", now)
	key.LastUsedAt = &now
	return key, nil
}

func hashKey(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

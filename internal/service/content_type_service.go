package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cmaas/internal/db"
	"github.com/cmaas/internal/schema"
	"gorm.io/gorm"
)

var (
	ErrContentTypeNotFound = errors.New("content type not found")
	ErrTypeNameRequired    = errors.New("content type name is required")
)

// ContentTypeService wraps content type schema storage and enforces the
// authoring and evolution rules server-side.
type ContentTypeService struct {
	db *gorm.DB
}

// ContentTypeInput represents fields accepted when creating or updating a
// content type.
type ContentTypeInput struct {
	Name   string
	Schema schema.Schema
}

// NewContentTypeService creates a ContentTypeService instance.
func NewContentTypeService(gdb *gorm.DB) *ContentTypeService {
	return &ContentTypeService{db: gdb}
}

// List returns the tenant's content types ordered by creation time.
func (s *ContentTypeService) List(tenantID uint) ([]db.ContentType, error) {
	var types []db.ContentType
	if err := s.db.Where("tenant_id = ?", tenantID).Order("created_at asc").Find(&types).Error; err != nil {
		return nil, err
	}
	return types, nil
}

// Get loads one content type scoped to the tenant.
func (s *ContentTypeService) Get(tenantID, id uint) (db.ContentType, error) {
	var ct db.ContentType
	err := s.db.Where("tenant_id = ?", tenantID).First(&ct, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.ContentType{}, ErrContentTypeNotFound
	}
	if err != nil {
		return db.ContentType{}, err
	}
	return ct, nil
}

// Create validates the authoring rules and persists a new content type.
func (s *ContentTypeService) Create(tenantID uint, input ContentTypeInput) (db.ContentType, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return db.ContentType{}, ErrTypeNameRequired
	}

	normalized := input.Schema.Normalize()
	if err := normalized.Validate(); err != nil {
		return db.ContentType{}, err
	}

	ct := db.ContentType{
		TenantID: tenantID,
		Name:     name,
		Schema:   db.SchemaColumn(normalized),
	}
	if err := s.db.Create(&ct).Error; err != nil {
		return db.ContentType{}, fmt.Errorf("create content type: %w", err)
	}
	return ct, nil
}

// Update renames a content type and applies an append-only schema change.
// The stored schema acts as the locked prefix: existing fields must arrive
// unchanged and in order, new fields may only be appended.
func (s *ContentTypeService) Update(tenantID, id uint, input ContentTypeInput) (db.ContentType, error) {
	ct, err := s.Get(tenantID, id)
	if err != nil {
		return db.ContentType{}, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return db.ContentType{}, ErrTypeNameRequired
	}

	normalized := input.Schema.Normalize()
	if err := schema.ValidateEvolution(ct.FieldSchema(), normalized); err != nil {
		return db.ContentType{}, err
	}

	ct.Name = name
	ct.Schema = db.SchemaColumn(normalized)
	if err := s.db.Save(&ct).Error; err != nil {
		return db.ContentType{}, fmt.Errorf("update content type: %w", err)
	}
	return ct, nil
}

// Delete removes a content type together with its entries.
func (s *ContentTypeService) Delete(tenantID, id uint) error {
	ct, err := s.Get(tenantID, id)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tenant_id = ? AND content_type_id = ?", tenantID, ct.ID).
			Delete(&db.ContentEntry{}).Error; err != nil {
			return err
		}
		return tx.Delete(&ct).Error
	})
}

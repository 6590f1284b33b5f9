package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cmaas/internal/db"
	"github.com/cmaas/internal/schema"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

var (
	ErrEntryNotFound    = errors.New("content entry not found")
	ErrInvalidEntryData = errors.New("invalid entry data")
)

// richtextSanitizer strips unsafe markup from richtext field values before
// they are persisted.
var richtextSanitizer = bluemonday.UGCPolicy()

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// EntryService wraps content entry storage: pagination, search, the
// default-seeding and coercion write path, and the visibility flag.
type EntryService struct {
	db *gorm.DB
}

// EntryFilter describes the list query. Page is 1-indexed.
type EntryFilter struct {
	Page       int
	PageSize   int
	SearchTerm string
}

// EntryListResult aggregates one page of entries with pagination counters.
type EntryListResult struct {
	Entries      []db.ContentEntry
	TotalRecords int64
	Page         int
	PageSize     int
	TotalPages   int
}

// NewEntryService creates an EntryService instance.
func NewEntryService(gdb *gorm.DB) *EntryService {
	return &EntryService{db: gdb}
}

// List returns one page of a content type's entries. The search term
// matches anywhere in the serialized data payload.
func (s *EntryService) List(tenantID, contentTypeID uint, filter EntryFilter) (EntryListResult, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	countQuery := s.applyListFilters(s.db.Model(&db.ContentEntry{}), tenantID, contentTypeID, filter)

	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return EntryListResult{}, err
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))

	var entries []db.ContentEntry
	dataQuery := s.applyListFilters(s.db.Model(&db.ContentEntry{}), tenantID, contentTypeID, filter)
	if err := dataQuery.Order("created_at desc").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&entries).Error; err != nil {
		return EntryListResult{}, err
	}

	return EntryListResult{
		Entries:      entries,
		TotalRecords: total,
		Page:         page,
		PageSize:     pageSize,
		TotalPages:   totalPages,
	}, nil
}

func (s *EntryService) applyListFilters(query *gorm.DB, tenantID, contentTypeID uint, filter EntryFilter) *gorm.DB {
	query = query.Where("tenant_id = ? AND content_type_id = ?", tenantID, contentTypeID)
	if term := strings.TrimSpace(filter.SearchTerm); term != "" {
		query = query.Where("data LIKE ?", "%"+term+"%")
	}
	return query
}

// Get loads one entry scoped to the tenant.
func (s *EntryService) Get(tenantID, entryID uint) (db.ContentEntry, error) {
	var entry db.ContentEntry
	err := s.db.Where("tenant_id = ?", tenantID).First(&entry, entryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.ContentEntry{}, ErrEntryNotFound
	}
	if err != nil {
		return db.ContentEntry{}, err
	}
	return entry, nil
}

// Create persists a new entry for the content type. Fields the payload
// lacks are seeded from their kind defaults, every known field is coerced
// to its stored shape, and no field-level required constraint applies.
func (s *EntryService) Create(tenantID, contentTypeID uint, data map[string]any) (db.ContentEntry, error) {
	var ct db.ContentType
	err := s.db.Where("tenant_id = ?", tenantID).First(&ct, contentTypeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.ContentEntry{}, ErrContentTypeNotFound
	}
	if err != nil {
		return db.ContentEntry{}, err
	}

	prepared, err := s.prepareData(ct.FieldSchema(), data, true)
	if err != nil {
		return db.ContentEntry{}, err
	}

	entry := db.ContentEntry{
		TenantID:      tenantID,
		ContentTypeID: ct.ID,
		Data:          prepared,
		IsVisible:     true,
	}
	if err := s.db.Create(&entry).Error; err != nil {
		return db.ContentEntry{}, fmt.Errorf("create entry: %w", err)
	}
	return entry, nil
}

// Update replaces an entry's data map in full.
func (s *EntryService) Update(tenantID, entryID uint, data map[string]any) (db.ContentEntry, error) {
	entry, err := s.Get(tenantID, entryID)
	if err != nil {
		return db.ContentEntry{}, err
	}

	var ct db.ContentType
	if err := s.db.Where("tenant_id = ?", tenantID).First(&ct, entry.ContentTypeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return db.ContentEntry{}, ErrContentTypeNotFound
		}
		return db.ContentEntry{}, err
	}

	prepared, err := s.prepareData(ct.FieldSchema(), data, false)
	if err != nil {
		return db.ContentEntry{}, err
	}

	entry.Data = prepared
	if err := s.db.Save(&entry).Error; err != nil {
		return db.ContentEntry{}, fmt.Errorf("update entry: %w", err)
	}
	return entry, nil
}

// Delete removes one entry.
func (s *EntryService) Delete(tenantID, entryID uint) error {
	entry, err := s.Get(tenantID, entryID)
	if err != nil {
		return err
	}
	return s.db.Delete(&entry).Error
}

// ToggleVisibility flips the entry's publication flag and returns the
// updated entry.
func (s *EntryService) ToggleVisibility(tenantID, entryID uint) (db.ContentEntry, error) {
	entry, err := s.Get(tenantID, entryID)
	if err != nil {
		return db.ContentEntry{}, err
	}

	entry.IsVisible = !entry.IsVisible
	if err := s.db.Model(&entry).Update("is_visible", entry.IsVisible).Error; err != nil {
		return db.ContentEntry{}, fmt.Errorf("toggle visibility: %w", err)
	}
	return entry, nil
}

// prepareData runs the engine's write path: optional default seeding,
// per-kind coercion, and sanitization of richtext values. Keys absent from
// the schema pass through untouched.
func (s *EntryService) prepareData(sc schema.Schema, data map[string]any, seedMissing bool) (db.JSONMap, error) {
	if data == nil {
		data = map[string]any{}
	}

	if seedMissing {
		for _, f := range sc.Fields {
			if _, ok := data[f.Name]; !ok {
				data[f.Name] = schema.DefaultValue(f.Kind())
			}
		}
	}

	coerced, err := schema.CoerceData(sc, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntryData, err)
	}

	for _, f := range sc.Fields {
		if f.Kind() != schema.KindRichText {
			continue
		}
		if text, ok := coerced[f.Name].(string); ok {
			coerced[f.Name] = richtextSanitizer.Sanitize(text)
		}
	}

	return db.JSONMap(coerced), nil
}

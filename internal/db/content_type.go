package db

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/cmaas/internal/schema"
	"gorm.io/gorm"
)

// SchemaColumn stores a content type's ordered field list as JSON text.
type SchemaColumn schema.Schema

// Value implements driver.Valuer for SchemaColumn.
func (s SchemaColumn) Value() (driver.Value, error) {
	raw, err := json.Marshal(schema.Schema(s))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan implements sql.Scanner for SchemaColumn.
func (s *SchemaColumn) Scan(value any) error {
	if value == nil {
		*s = SchemaColumn{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported column type %T for SchemaColumn", value)
	}

	if len(raw) == 0 {
		*s = SchemaColumn{}
		return nil
	}

	return json.Unmarshal(raw, (*schema.Schema)(s))
}

// ContentType 定义了内容类型模型，schema 以 JSON 形式内嵌存储。
type ContentType struct {
	gorm.Model
	TenantID uint         `gorm:"index;not null"`
	Name     string       `gorm:"size:200;not null"`
	Schema   SchemaColumn `gorm:"type:text"`
}

// FieldSchema returns the content type's schema as the engine type.
func (c ContentType) FieldSchema() schema.Schema {
	return schema.Schema(c.Schema)
}

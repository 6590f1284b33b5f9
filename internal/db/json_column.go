package db

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONMap persists an open string-keyed map as a JSON text column. Entry
// data is deliberately schemaless at the storage layer: keys may diverge
// from the owning content type's current field list.
type JSONMap map[string]any

// Value implements driver.Valuer for JSONMap.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan implements sql.Scanner for JSONMap.
func (m *JSONMap) Scan(value any) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported column type %T for JSONMap", value)
	}

	if len(raw) == 0 {
		*m = JSONMap{}
		return nil
	}

	return json.Unmarshal(raw, m)
}

package schema

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoFields           = errors.New("schema must define at least one field")
	ErrEmptyFieldName     = errors.New("every field must have a name")
	ErrDuplicateFieldName = errors.New("field names must be unique")
	ErrUnknownFieldKind   = errors.New("unknown field type")
	ErrLockedFieldChanged = errors.New("existing fields cannot be renamed, retyped or removed")
)

// FieldDefinition is one named, typed slot within a content type's schema.
type FieldDefinition struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Kind returns the parsed field kind, degrading unknown types to string.
func (f FieldDefinition) Kind() FieldKind {
	return ParseKind(f.Type)
}

// Schema is the ordered field list of a content type. Field order is
// significant: it is the default column and form order.
type Schema struct {
	Fields []FieldDefinition `json:"fields"`
}

// FieldNames returns field names in schema order.
func (s Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// KindOf looks up a field's kind by name. Names absent from the schema fall
// back to string so stale entry keys still format as plain text.
func (s Schema) KindOf(name string) FieldKind {
	for _, f := range s.Fields {
		if f.Name == name {
			return f.Kind()
		}
	}
	return KindString
}

// Normalize trims field names in place and returns the schema.
func (s Schema) Normalize() Schema {
	fields := make([]FieldDefinition, len(s.Fields))
	for i, f := range s.Fields {
		fields[i] = FieldDefinition{Name: strings.TrimSpace(f.Name), Type: strings.TrimSpace(f.Type)}
	}
	return Schema{Fields: fields}
}

// Validate enforces the authoring rules: at least one field, non-empty
// trimmed names, a recognized kind per field, and case-insensitive name
// uniqueness. The first violated rule is returned.
func (s Schema) Validate() error {
	if len(s.Fields) == 0 {
		return ErrNoFields
	}

	seen := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			return ErrEmptyFieldName
		}
		if !IsValidKind(f.Type) {
			return fmt.Errorf("%w: %q", ErrUnknownFieldKind, f.Type)
		}
		lower := strings.ToLower(name)
		if _, ok := seen[lower]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateFieldName, name)
		}
		seen[lower] = struct{}{}
	}

	return nil
}

// ValidateEvolution enforces the append-only evolution rule: every locked
// field must survive unchanged in name, type and position, and any new
// field may only be appended after them without colliding (case
// insensitively) with a locked name or another new name.
func ValidateEvolution(locked, next Schema) error {
	if len(next.Fields) < len(locked.Fields) {
		return ErrLockedFieldChanged
	}

	for i, f := range locked.Fields {
		got := next.Fields[i]
		if got.Name != f.Name || got.Type != f.Type {
			return fmt.Errorf("%w: %q", ErrLockedFieldChanged, f.Name)
		}
	}

	lockedNames := make(map[string]struct{}, len(locked.Fields))
	for _, f := range locked.Fields {
		lockedNames[strings.ToLower(f.Name)] = struct{}{}
	}

	for _, f := range next.Fields[len(locked.Fields):] {
		lower := strings.ToLower(strings.TrimSpace(f.Name))
		if _, ok := lockedNames[lower]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateFieldName, f.Name)
		}
	}

	return next.Validate()
}

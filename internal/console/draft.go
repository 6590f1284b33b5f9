package console

import (
	"context"
	"errors"
	"strings"

	"github.com/cmaas/internal/schema"
)

var (
	ErrTypeNameRequired = errors.New("content type name is required")
	ErrFieldLocked      = errors.New("locked fields cannot be changed")
)

// SchemaDraft is one schema-authoring session. In create mode every field
// is editable; in evolution mode the fields loaded from the backend are
// locked and only newly added fields can be named, retyped or removed.
type SchemaDraft struct {
	typeID uint
	name   string
	locked []schema.FieldDefinition
	added  []schema.FieldDefinition
}

// NewSchemaDraft opens a create-mode authoring session.
func NewSchemaDraft() *SchemaDraft {
	return &SchemaDraft{}
}

// NewEvolutionDraft opens an evolution session: the content type's current
// fields become the locked prefix.
func NewEvolutionDraft(ct ContentType) *SchemaDraft {
	locked := make([]schema.FieldDefinition, len(ct.Schema.Fields))
	copy(locked, ct.Schema.Fields)
	return &SchemaDraft{typeID: ct.ID, name: ct.Name, locked: locked}
}

// SetName sets the content type's display name.
func (d *SchemaDraft) SetName(name string) {
	d.name = name
}

// LockedFields returns the immutable prefix of the schema.
func (d *SchemaDraft) LockedFields() []schema.FieldDefinition {
	out := make([]schema.FieldDefinition, len(d.locked))
	copy(out, d.locked)
	return out
}

// NewFields returns the fields added in this session.
func (d *SchemaDraft) NewFields() []schema.FieldDefinition {
	out := make([]schema.FieldDefinition, len(d.added))
	copy(out, d.added)
	return out
}

// AddField appends an unnamed field defaulting to the string kind.
func (d *SchemaDraft) AddField() {
	d.added = append(d.added, schema.FieldDefinition{Type: string(schema.KindString)})
}

// SetField renames or retypes one of the session's new fields. Index is
// relative to the added list; locked fields are not addressable.
func (d *SchemaDraft) SetField(index int, name, fieldType string) error {
	if index < 0 || index >= len(d.added) {
		return ErrFieldLocked
	}
	d.added[index] = schema.FieldDefinition{Name: name, Type: fieldType}
	return nil
}

// RemoveField drops one of the session's new fields.
func (d *SchemaDraft) RemoveField(index int) error {
	if index < 0 || index >= len(d.added) {
		return ErrFieldLocked
	}
	d.added = append(d.added[:index], d.added[index+1:]...)
	return nil
}

// Merged returns the complete field list: locked fields unchanged in their
// original order, followed by the new fields in entry order.
func (d *SchemaDraft) Merged() schema.Schema {
	fields := make([]schema.FieldDefinition, 0, len(d.locked)+len(d.added))
	fields = append(fields, d.locked...)
	fields = append(fields, d.added...)
	return schema.Schema{Fields: fields}.Normalize()
}

// Validate checks the full authoring rule set without touching the
// backend: non-empty name, at least one field, named fields, no collision
// with a locked name. The first violated rule is returned.
func (d *SchemaDraft) Validate() error {
	if strings.TrimSpace(d.name) == "" {
		return ErrTypeNameRequired
	}

	merged := d.Merged()
	if len(d.locked) > 0 {
		return schema.ValidateEvolution(schema.Schema{Fields: d.locked}, merged)
	}
	return merged.Validate()
}

// Save validates and submits the draft as one write: POST for a new type,
// PUT with the merged field list for an evolution. No partial submission
// occurs; on any validation error the backend is never called.
func (d *SchemaDraft) Save(ctx context.Context, client *Client) (ContentType, error) {
	if err := d.Validate(); err != nil {
		return ContentType{}, err
	}

	name := strings.TrimSpace(d.name)
	if d.typeID != 0 {
		return client.UpdateContentType(ctx, d.typeID, name, d.Merged())
	}
	return client.CreateContentType(ctx, name, d.Merged())
}

package schema

import "fmt"

// Control names the input widget an editing surface should render for a
// field kind.
type Control string

const (
	ControlText     Control = "text"
	ControlTextarea Control = "textarea"
	ControlNumber   Control = "number"
	ControlDatetime Control = "datetime-local"
	ControlToggle   Control = "toggle"
	ControlTags     Control = "tags"
	ControlUpload   Control = "upload"
)

// controlFor is the input-side half of the field-type registry.
func controlFor(kind FieldKind) Control {
	switch kind {
	case KindRichText:
		return ControlTextarea
	case KindNumber:
		return ControlNumber
	case KindDatetime:
		return ControlDatetime
	case KindBoolean:
		return ControlToggle
	case KindArray:
		return ControlTags
	case KindImage:
		return ControlUpload
	default:
		return ControlText
	}
}

// FormField describes one editable control: the field name, its kind (shown
// next to the label for operator clarity), the widget to render and the
// current working value.
type FormField struct {
	Name    string    `json:"name"`
	Kind    FieldKind `json:"kind"`
	Control Control   `json:"control"`
	Value   any       `json:"value"`
}

// SeedDefaults builds a fresh data map for a new entry, one key per schema
// field, using the per-kind default values.
func SeedDefaults(s Schema) map[string]any {
	data := make(map[string]any, len(s.Fields))
	for _, f := range s.Fields {
		data[f.Name] = DefaultValue(f.Kind())
	}
	return data
}

// BuildForm produces one form field per schema field in schema order.
// data may be nil (create mode falls back to defaults) or carry an existing
// entry's values; values for fields the data map lacks, which happens after
// schema evolution, seed from the kind's default.
func BuildForm(s Schema, data map[string]any) []FormField {
	fields := make([]FormField, 0, len(s.Fields))
	for _, f := range s.Fields {
		kind := f.Kind()
		value, ok := data[f.Name]
		if !ok || value == nil {
			value = DefaultValue(kind)
		}
		fields = append(fields, FormField{
			Name:    f.Name,
			Kind:    kind,
			Control: controlFor(kind),
			Value:   value,
		})
	}
	return fields
}

// CoerceData converts a complete raw data map into stored shapes, one
// field at a time. Keys without a schema field pass through untouched
// (stale keys from an older schema shape are preserved, not dropped).
// A failed coercion aborts with an error naming the field.
func CoerceData(s Schema, raw map[string]any) (map[string]any, error) {
	known := make(map[string]FieldKind, len(s.Fields))
	for _, f := range s.Fields {
		known[f.Name] = f.Kind()
	}

	out := make(map[string]any, len(raw))
	for name, value := range raw {
		kind, ok := known[name]
		if !ok {
			out[name] = value
			continue
		}
		coerced, err := Coerce(kind, value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		out[name] = coerced
	}
	return out, nil
}

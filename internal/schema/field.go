package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// FieldKind identifies the semantic type of a content field.
type FieldKind string

const (
	KindString   FieldKind = "string"
	KindRichText FieldKind = "richtext"
	KindNumber   FieldKind = "number"
	KindDatetime FieldKind = "datetime"
	KindBoolean  FieldKind = "boolean"
	KindArray    FieldKind = "array"
	KindImage    FieldKind = "image"
)

// Kinds lists every supported field kind in display order.
func Kinds() []FieldKind {
	return []FieldKind{
		KindString,
		KindRichText,
		KindNumber,
		KindDatetime,
		KindBoolean,
		KindArray,
		KindImage,
	}
}

// ParseKind normalizes a raw type string. Unrecognized values degrade to
// KindString so stale schemas never break rendering.
func ParseKind(raw string) FieldKind {
	kind := FieldKind(strings.ToLower(strings.TrimSpace(raw)))
	switch kind {
	case KindString, KindRichText, KindNumber, KindDatetime, KindBoolean, KindArray, KindImage:
		return kind
	}
	return KindString
}

// IsValidKind reports whether raw names a member of the closed kind set.
// Authoring rejects unknown kinds; reading tolerates them via ParseKind.
func IsValidKind(raw string) bool {
	kind := FieldKind(strings.ToLower(strings.TrimSpace(raw)))
	for _, k := range Kinds() {
		if kind == k {
			return true
		}
	}
	return false
}

// DefaultValue seeds a new entry's data for a field before user input.
func DefaultValue(kind FieldKind) any {
	switch kind {
	case KindBoolean:
		return false
	case KindArray:
		return []string{}
	default:
		return ""
	}
}

// Coerce converts a raw submitted value into the stored shape for kind.
// String-like kinds pass through as strings; number parses to float64 with
// the empty string treated as zero; boolean accepts bools, parseable strings
// and non-zero numbers; array accepts a comma separated string or a slice,
// trimming each element. Unknown kinds take the plain string path.
func Coerce(kind FieldKind, raw any) (any, error) {
	switch kind {
	case KindNumber:
		return coerceNumber(raw)
	case KindBoolean:
		return coerceBool(raw)
	case KindArray:
		return coerceArray(raw)
	case KindDatetime:
		// Stored verbatim, no timezone conversion.
		return stringify(raw), nil
	default:
		return stringify(raw), nil
	}
}

func coerceNumber(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return float64(0), nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return float64(0), nil
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", v)
		}
		return parsed, nil
	default:
		return nil, fmt.Errorf("invalid number value of type %T", raw)
	}
}

func coerceBool(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return false, nil
		}
		parsed, err := strconv.ParseBool(trimmed)
		if err != nil {
			return nil, fmt.Errorf("invalid boolean %q", v)
		}
		return parsed, nil
	case float64:
		return v != 0, nil
	case int:
		return v != 0, nil
	default:
		return nil, fmt.Errorf("invalid boolean value of type %T", raw)
	}
}

func coerceArray(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return []string{}, nil
	case []string:
		out := make([]string, len(v))
		for i, item := range v {
			out[i] = strings.TrimSpace(item)
		}
		return out, nil
	case []any:
		out := make([]string, len(v))
		for i, item := range v {
			out[i] = strings.TrimSpace(stringify(item))
		}
		return out, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return []string{}, nil
		}
		parts := strings.Split(v, ",")
		out := make([]string, len(parts))
		for i, part := range parts {
			out[i] = strings.TrimSpace(part)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("invalid array value of type %T", raw)
	}
}

func stringify(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

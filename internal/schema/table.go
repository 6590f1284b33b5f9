package schema

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// NullPlaceholder renders for missing values in the entry table.
const NullPlaceholder = "-"

// truncateAt bounds the characters shown for long string cells.
const truncateAt = 50

// Cell is one formatted table cell. Display carries what the table shows;
// Full keeps the untruncated value for tooltips; ImageURL is set for image
// cells so callers can render a thumbnail instead of text.
type Cell struct {
	Display   string `json:"display"`
	Full      string `json:"full,omitempty"`
	Truncated bool   `json:"truncated,omitempty"`
	ImageURL  string `json:"imageUrl,omitempty"`
}

// datetimeLayouts covers the wire formats entries carry for datetime
// fields. The HTML datetime-local shape comes first since the editing
// control produces it.
var datetimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.RFC3339,
	"2006-01-02",
}

// FormatCell renders an arbitrary stored value for the entry table,
// dispatching on the column's field kind. Nil values render as the "-"
// placeholder for every kind. Formatting never fails: values that do not
// parse for their kind degrade to their plain string form.
func FormatCell(value any, kind FieldKind) Cell {
	if value == nil {
		return Cell{Display: NullPlaceholder}
	}

	switch kind {
	case KindImage:
		url := stringify(value)
		if url == "" {
			return Cell{Display: NullPlaceholder}
		}
		return Cell{Display: url, ImageURL: url}
	case KindBoolean:
		if truthy(value) {
			return Cell{Display: "Yes"}
		}
		return Cell{Display: "No"}
	case KindDatetime:
		return formatDatetime(value)
	case KindNumber:
		return formatNumber(value)
	default:
		return formatString(value)
	}
}

// Columns derives the table column set: the first entry's data keys when the
// page has entries, otherwise the schema's field names. Entries persisted
// under an older schema shape may therefore surface stale or missing keys;
// that is accepted behavior.
func Columns(firstEntryKeys []string, s Schema) []string {
	if len(firstEntryKeys) > 0 {
		return firstEntryKeys
	}
	return s.FieldNames()
}

func formatDatetime(value any) Cell {
	raw := stringify(value)
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return Cell{Display: t.Format("Jan 2, 2006"), Full: raw}
		}
	}
	// Unparseable timestamps fall back to the raw string.
	return formatString(value)
}

func formatNumber(value any) Cell {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return formatString(value)
		}
		f = parsed
	default:
		return formatString(value)
	}
	return Cell{Display: groupDigits(f)}
}

func formatString(value any) Cell {
	full := stringify(value)
	if utf8.RuneCountInString(full) > truncateAt {
		runes := []rune(full)
		return Cell{
			Display:   string(runes[:truncateAt]) + "...",
			Full:      full,
			Truncated: true,
		}
	}
	return Cell{Display: full}
}

// groupDigits formats a float with comma grouping separators, matching the
// en-US toLocaleString output the console shows.
func groupDigits(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, fracPart, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	out := b.String()
	if hasFrac {
		out += "." + fracPart
	}
	if neg {
		out = "-" + out
	}
	return out
}

func truthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		return err == nil && parsed
	case float64:
		return v != 0
	case int:
		return v != 0
	default:
		return false
	}
}

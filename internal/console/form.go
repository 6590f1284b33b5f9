package console

import (
	"context"
	"errors"

	"github.com/cmaas/internal/schema"
)

var ErrFormClosed = errors.New("form session already submitted")

// FormSession owns the working data map of one create or edit form. The
// map is single-writer: only the session mutates it, one field at a time,
// until Submit hands the complete map to the backend as one atomic write.
type FormSession struct {
	contentType ContentType
	data        map[string]any
	entryID     uint
	editing     bool
	submitted   bool
}

// NewCreateForm opens a create-mode session with every field seeded from
// its kind default.
func NewCreateForm(ct ContentType) *FormSession {
	return &FormSession{
		contentType: ct,
		data:        schema.SeedDefaults(ct.Schema),
	}
}

// NewEditForm opens an edit-mode session over an existing entry's data.
// The entry may predate schema evolution: fields its data lacks render
// with their kind default and are only persisted on submit.
func NewEditForm(ct ContentType, entry Entry) *FormSession {
	data := make(map[string]any, len(entry.Data))
	for name, value := range entry.Data {
		data[name] = value
	}
	return &FormSession{
		contentType: ct,
		data:        data,
		entryID:     entry.ID,
		editing:     true,
	}
}

// Fields returns one control descriptor per schema field, in schema order,
// carrying the field's kind for label annotation.
func (f *FormSession) Fields() []schema.FormField {
	return schema.BuildForm(f.contentType.Schema, f.data)
}

// SetField coerces the raw input for one field and stores it. Every other
// field's working value is untouched; a failed coercion leaves the map
// unchanged.
func (f *FormSession) SetField(name string, raw any) error {
	value, err := schema.Coerce(f.contentType.Schema.KindOf(name), raw)
	if err != nil {
		return err
	}
	f.data[name] = value
	return nil
}

// Data returns a copy of the working map.
func (f *FormSession) Data() map[string]any {
	out := make(map[string]any, len(f.data))
	for name, value := range f.data {
		out[name] = value
	}
	return out
}

// Submit writes the complete working map. The session ends on success;
// callers navigate away only after the write is acknowledged.
func (f *FormSession) Submit(ctx context.Context, client *Client) (Entry, error) {
	if f.submitted {
		return Entry{}, ErrFormClosed
	}

	var (
		entry Entry
		err   error
	)
	if f.editing {
		entry, err = client.UpdateEntry(ctx, f.entryID, f.contentType.ID, f.data)
	} else {
		entry, err = client.CreateEntry(ctx, f.contentType.ID, f.data)
	}
	if err != nil {
		return Entry{}, err
	}

	f.submitted = true
	return entry, nil
}

package console

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cmaas/internal/schema"
)

const (
	searchDebounce    = 500 * time.Millisecond
	toggleSettleDelay = 2 * time.Second
	defaultPageSize   = 10
	pageWindow        = 5
)

// EntryList coordinates one content type's entry table: paginated
// fetches, debounced search, optimistic visibility toggles and the
// derived column set. Fetches carry a monotonic sequence number so a slow
// stale response can never overwrite the state of a newer one.
type EntryList struct {
	client      *Client
	contentType ContentType

	mu           sync.Mutex
	entries      []Entry
	page         int
	pageSize     int
	searchTerm   string
	totalRecords int64
	totalPages   int
	lastErr      error

	seq      uint64
	debounce *time.Timer
	toggling map[uint]struct{}
	closed   bool

	// Delays are fields so tests can shrink them.
	debounceDelay time.Duration
	settleDelay   time.Duration
}

// NewEntryList creates a list view for the content type, positioned on
// page 1 with no search term. Nothing is fetched until Refresh or a
// mutation triggers one.
func NewEntryList(client *Client, ct ContentType) *EntryList {
	return &EntryList{
		client:        client,
		contentType:   ct,
		page:          1,
		pageSize:      defaultPageSize,
		toggling:      make(map[uint]struct{}),
		debounceDelay: searchDebounce,
		settleDelay:   toggleSettleDelay,
	}
}

// Close cancels any pending debounce timer. In-flight requests are left
// to finish; their responses are discarded by the sequence guard.
func (l *EntryList) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	if l.debounce != nil {
		l.debounce.Stop()
		l.debounce = nil
	}
	l.seq++
}

// Refresh fetches the current page immediately.
func (l *EntryList) Refresh(ctx context.Context) error {
	l.mu.Lock()
	seq := l.nextSeqLocked()
	page, pageSize, term := l.page, l.pageSize, l.searchTerm
	l.mu.Unlock()

	return l.fetch(ctx, seq, page, pageSize, term)
}

// SetSearch buffers a search keystroke. The fetch fires only once input
// has been stable for the debounce window; every keystroke cancels the
// previous timer. Changing the term resets pagination to page 1.
func (l *EntryList) SetSearch(ctx context.Context, term string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}

	l.searchTerm = term
	l.page = 1

	if l.debounce != nil {
		l.debounce.Stop()
	}
	// The sequence number is allocated when the timer fires, not at
	// keystroke time, so the search re-fetch outranks any navigation
	// issued during the debounce window.
	l.debounce = time.AfterFunc(l.debounceDelay, func() {
		l.mu.Lock()
		if l.closed {
			l.mu.Unlock()
			return
		}
		l.page = 1
		seq := l.nextSeqLocked()
		pageSize, current := l.pageSize, l.searchTerm
		l.mu.Unlock()

		_ = l.fetch(ctx, seq, 1, pageSize, current)
	})
}

// SetPage navigates to a page and fetches it. A pending debounced search
// supersedes the navigation: its newer sequence number wins.
func (l *EntryList) SetPage(ctx context.Context, page int) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	if page < 1 {
		page = 1
	}
	if l.totalPages > 0 && page > l.totalPages {
		page = l.totalPages
	}
	l.page = page
	seq := l.nextSeqLocked()
	pageSize, term := l.pageSize, l.searchTerm
	l.mu.Unlock()

	return l.fetch(ctx, seq, page, pageSize, term)
}

// Delete removes an entry and refetches. Deleting the last entry on a
// page beyond the first steps back one page instead of showing an empty
// page.
func (l *EntryList) Delete(ctx context.Context, entryID uint) error {
	if err := l.client.DeleteEntry(ctx, entryID); err != nil {
		return err
	}

	l.mu.Lock()
	if len(l.entries) == 1 && l.page > 1 {
		l.page--
	}
	seq := l.nextSeqLocked()
	page, pageSize, term := l.page, l.pageSize, l.searchTerm
	l.mu.Unlock()

	return l.fetch(ctx, seq, page, pageSize, term)
}

// ToggleVisibility optimistically flips the entry's flag, issues the
// mutation and rolls the flag back if the backend rejects it. While one
// toggle for an entry is outstanding, further toggles for the same entry
// are ignored; the guard clears immediately on failure and after a settle
// delay on success.
func (l *EntryList) ToggleVisibility(ctx context.Context, entryID uint) error {
	l.mu.Lock()
	if _, inFlight := l.toggling[entryID]; inFlight {
		l.mu.Unlock()
		return nil
	}

	idx := l.indexOfLocked(entryID)
	if idx < 0 {
		l.mu.Unlock()
		return nil
	}

	l.toggling[entryID] = struct{}{}
	before := l.entries[idx].IsVisible
	l.entries[idx].IsVisible = !before
	l.mu.Unlock()

	if _, err := l.client.ToggleVisibility(ctx, entryID); err != nil {
		l.mu.Lock()
		if idx := l.indexOfLocked(entryID); idx >= 0 {
			l.entries[idx].IsVisible = before
		}
		delete(l.toggling, entryID)
		l.mu.Unlock()
		return err
	}

	time.AfterFunc(l.settleDelay, func() {
		l.mu.Lock()
		delete(l.toggling, entryID)
		l.mu.Unlock()
	})
	return nil
}

// Entries returns the current page's entries.
func (l *EntryList) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Page returns the current 1-indexed page number.
func (l *EntryList) Page() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.page
}

// TotalRecords returns the backend-supplied record count.
func (l *EntryList) TotalRecords() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalRecords
}

// TotalPages returns the backend-supplied page count.
func (l *EntryList) TotalPages() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalPages
}

// Columns derives the visible column set from the first entry's data
// keys, falling back to the schema's field names when the page is empty.
// Known schema fields keep schema order; keys the schema no longer names
// follow in lexicographic order.
func (l *EntryList) Columns() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	var keys []string
	if len(l.entries) > 0 {
		keys = orderedKeys(l.entries[0].Data, l.contentType.Schema)
	}
	return schema.Columns(keys, l.contentType.Schema)
}

// Cell formats one entry value for the table, resolving the column's
// kind from the current schema with a plain-text fallback for stale keys.
func (l *EntryList) Cell(entry Entry, column string) schema.Cell {
	return schema.FormatCell(entry.Data[column], l.contentType.Schema.KindOf(column))
}

// PageNumbers returns the window of page buttons: up to five numbers
// centered on the current page, clamped at both ends of the range.
func (l *EntryList) PageNumbers() []int {
	l.mu.Lock()
	defer l.mu.Unlock()

	start := l.page - 2
	if start < 1 {
		start = 1
	}
	end := start + pageWindow - 1
	if end > l.totalPages {
		end = l.totalPages
	}
	if end-start < pageWindow-1 {
		start = end - pageWindow + 1
		if start < 1 {
			start = 1
		}
	}

	pages := make([]int, 0, pageWindow)
	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}
	return pages
}

// Err returns the error of the most recent completed fetch.
func (l *EntryList) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastErr
}

func (l *EntryList) nextSeqLocked() uint64 {
	l.seq++
	return l.seq
}

func (l *EntryList) indexOfLocked(entryID uint) int {
	for i, entry := range l.entries {
		if entry.ID == entryID {
			return i
		}
	}
	return -1
}

// fetch loads one page and applies it only if no newer fetch has been
// started since: last-to-resolve no longer wins.
func (l *EntryList) fetch(ctx context.Context, seq uint64, page, pageSize int, term string) error {
	result, err := l.client.Entries(ctx, l.contentType.ID, page, pageSize, term)

	l.mu.Lock()
	defer l.mu.Unlock()
	if seq != l.seq || l.closed {
		return nil
	}

	if err != nil {
		// The last good page stays on screen alongside the error.
		l.lastErr = err
		return err
	}

	l.lastErr = nil
	l.entries = result.Data
	l.page = result.Page
	l.totalRecords = result.TotalRecords
	l.totalPages = result.TotalPages
	return nil
}

// orderedKeys lists the entry's data keys with schema-known names first in
// schema order, then the remaining keys sorted.
func orderedKeys(data map[string]any, s schema.Schema) []string {
	keys := make([]string, 0, len(data))
	seen := make(map[string]struct{}, len(data))
	for _, f := range s.Fields {
		if _, ok := data[f.Name]; ok {
			keys = append(keys, f.Name)
			seen[f.Name] = struct{}{}
		}
	}

	var extra []string
	for name := range data {
		if _, ok := seen[name]; !ok {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(keys, extra...)
}

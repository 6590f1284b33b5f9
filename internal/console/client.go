package console

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cmaas/internal/schema"
)

// ContentType is the wire shape of one content type.
type ContentType struct {
	ID     uint          `json:"id"`
	Name   string        `json:"name"`
	Schema schema.Schema `json:"schema"`
}

// Entry is the wire shape of one content entry.
type Entry struct {
	ID            uint           `json:"id"`
	Data          map[string]any `json:"data"`
	ContentTypeID uint           `json:"contentTypeId"`
	TenantID      uint           `json:"tenantId"`
	IsVisible     bool           `json:"isVisible"`
	CreatedAt     time.Time      `json:"createdAt"`
}

// EntryPage is the paginated list envelope.
type EntryPage struct {
	TotalRecords int64   `json:"totalRecords"`
	Page         int     `json:"page"`
	PageSize     int     `json:"pageSize"`
	TotalPages   int     `json:"totalPages"`
	Data         []Entry `json:"data"`
}

// Client exposes typed wrappers for every backend endpoint the console
// uses.
type Client struct {
	session *Session
}

// NewClient creates a Client over the session.
func NewClient(session *Session) *Client {
	return &Client{session: session}
}

// Login authenticates and stores the issued token on the session.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var out struct {
		Token string `json:"token"`
	}
	err := c.session.do(ctx, http.MethodPost, "/auth/login", nil, map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return err
	}
	c.session.SetToken(out.Token)
	return nil
}

// ContentTypes lists the tenant's content types.
func (c *Client) ContentTypes(ctx context.Context) ([]ContentType, error) {
	var out []ContentType
	if err := c.session.do(ctx, http.MethodGet, "/ContentTypes", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ContentType loads one content type by id.
func (c *Client) ContentType(ctx context.Context, id uint) (ContentType, error) {
	var out ContentType
	if err := c.session.do(ctx, http.MethodGet, fmt.Sprintf("/ContentTypes/%d", id), nil, nil, &out); err != nil {
		return ContentType{}, err
	}
	return out, nil
}

// CreateContentType submits a newly authored schema.
func (c *Client) CreateContentType(ctx context.Context, name string, s schema.Schema) (ContentType, error) {
	var out ContentType
	body := map[string]any{"name": name, "schema": s}
	if err := c.session.do(ctx, http.MethodPost, "/ContentTypes", nil, body, &out); err != nil {
		return ContentType{}, err
	}
	return out, nil
}

// UpdateContentType submits the full merged field list of an evolution.
func (c *Client) UpdateContentType(ctx context.Context, id uint, name string, s schema.Schema) (ContentType, error) {
	var out ContentType
	body := map[string]any{"name": name, "schema": s}
	if err := c.session.do(ctx, http.MethodPut, fmt.Sprintf("/ContentTypes/%d", id), nil, body, &out); err != nil {
		return ContentType{}, err
	}
	return out, nil
}

// DeleteContentType removes a content type.
func (c *Client) DeleteContentType(ctx context.Context, id uint) error {
	return c.session.do(ctx, http.MethodDelete, fmt.Sprintf("/ContentTypes/%d", id), nil, nil, nil)
}

// Entries fetches one page of a content type's entries.
func (c *Client) Entries(ctx context.Context, contentTypeID uint, page, pageSize int, searchTerm string) (EntryPage, error) {
	query := url.Values{}
	query.Set("Page", strconv.Itoa(page))
	query.Set("PageSize", strconv.Itoa(pageSize))
	if searchTerm != "" {
		query.Set("SearchTerm", searchTerm)
	}

	var out EntryPage
	if err := c.session.do(ctx, http.MethodGet, fmt.Sprintf("/ContentEntries/%d", contentTypeID), query, nil, &out); err != nil {
		return EntryPage{}, err
	}
	return out, nil
}

// Entry loads one entry for editing.
func (c *Client) Entry(ctx context.Context, entryID uint) (Entry, error) {
	var out Entry
	if err := c.session.do(ctx, http.MethodGet, fmt.Sprintf("/ContentEntries/entry/%d", entryID), nil, nil, &out); err != nil {
		return Entry{}, err
	}
	return out, nil
}

// CreateEntry submits a complete data map as one atomic write.
func (c *Client) CreateEntry(ctx context.Context, contentTypeID uint, data map[string]any) (Entry, error) {
	var out Entry
	body := map[string]any{"contentTypeId": contentTypeID, "data": data}
	if err := c.session.do(ctx, http.MethodPost, "/ContentEntries", nil, body, &out); err != nil {
		return Entry{}, err
	}
	return out, nil
}

// UpdateEntry replaces an entry's data map in full.
func (c *Client) UpdateEntry(ctx context.Context, entryID, contentTypeID uint, data map[string]any) (Entry, error) {
	var out Entry
	body := map[string]any{"contentTypeId": contentTypeID, "data": data}
	if err := c.session.do(ctx, http.MethodPut, fmt.Sprintf("/ContentEntries/%d", entryID), nil, body, &out); err != nil {
		return Entry{}, err
	}
	return out, nil
}

// DeleteEntry removes one entry.
func (c *Client) DeleteEntry(ctx context.Context, entryID uint) error {
	return c.session.do(ctx, http.MethodDelete, fmt.Sprintf("/ContentEntries/entry/%d", entryID), nil, nil, nil)
}

// ToggleVisibility flips an entry's publication flag.
func (c *Client) ToggleVisibility(ctx context.Context, entryID uint) (bool, error) {
	var out struct {
		IsVisible bool `json:"isVisible"`
	}
	err := c.session.do(ctx, http.MethodPatch, fmt.Sprintf("/ContentEntries/%d/toggle-visibility", entryID), nil, nil, &out)
	if err != nil {
		return false, err
	}
	return out.IsVisible, nil
}

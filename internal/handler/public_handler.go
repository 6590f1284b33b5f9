package handler

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"github.com/cmaas/internal/db"
	"github.com/cmaas/internal/schema"
	"github.com/cmaas/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	sanitizer = bluemonday.UGCPolicy()
)

// PublicEntries serves the delivery API: visible entries of one content
// type, authenticated by API key instead of a user session. Richtext
// fields are delivered as rendered, sanitized HTML.
func (a *API) PublicEntries(c *gin.Context) {
	key, err := a.apiKeys.Verify(c.GetHeader("X-API-Key"))
	if err != nil {
		if errors.Is(err, service.ErrAPIKeyInvalid) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify api key"})
		return
	}

	typeName := strings.TrimSpace(c.Param("typeName"))

	var ct db.ContentType
	err = a.db.Where("tenant_id = ? AND LOWER(name) = LOWER(?)", key.TenantID, typeName).First(&ct).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "content type not found"})
		return
	}

	var entries []db.ContentEntry
	if err := a.db.Where("tenant_id = ? AND content_type_id = ? AND is_visible = ?", key.TenantID, ct.ID, true).
		Order("created_at desc").Find(&entries).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load entries"})
		return
	}

	sc := ct.FieldSchema()
	out := make([]map[string]any, len(entries))
	for i, entry := range entries {
		data := make(map[string]any, len(entry.Data))
		for name, value := range entry.Data {
			if sc.KindOf(name) == schema.KindRichText {
				if text, ok := value.(string); ok {
					if rendered, err := renderMarkdown(text); err == nil {
						data[name] = rendered
						continue
					}
				}
			}
			data[name] = value
		}
		out[i] = map[string]any{
			"id":        entry.ID,
			"data":      data,
			"createdAt": entry.CreatedAt,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"contentType": ct.Name,
		"data":        out,
	})
}

func renderMarkdown(content string) (string, error) {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(content), &buf); err != nil {
		return "", err
	}
	return string(sanitizer.SanitizeBytes(buf.Bytes())), nil
}

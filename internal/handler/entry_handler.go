package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/cmaas/internal/db"
	"github.com/cmaas/internal/service"
	"github.com/gin-gonic/gin"
)

type entryResponse struct {
	ID            uint           `json:"id"`
	Data          map[string]any `json:"data"`
	ContentTypeID uint           `json:"contentTypeId"`
	TenantID      uint           `json:"tenantId"`
	IsVisible     bool           `json:"isVisible"`
	CreatedAt     time.Time      `json:"createdAt"`
}

func toEntryResponse(entry db.ContentEntry) entryResponse {
	return entryResponse{
		ID:            entry.ID,
		Data:          entry.Data,
		ContentTypeID: entry.ContentTypeID,
		TenantID:      entry.TenantID,
		IsVisible:     entry.IsVisible,
		CreatedAt:     entry.CreatedAt,
	}
}

// GetEntries 获取内容条目分页列表，支持 SearchTerm 模糊搜索
func (a *API) GetEntries(c *gin.Context) {
	claims := currentClaims(c)

	contentTypeID, err := strconv.ParseUint(c.Param("contentTypeId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid content type id"})
		return
	}

	page, _ := strconv.Atoi(c.Query("Page"))
	pageSize, _ := strconv.Atoi(c.Query("PageSize"))

	result, err := a.entries.List(claims.TenantID, uint(contentTypeID), service.EntryFilter{
		Page:       page,
		PageSize:   pageSize,
		SearchTerm: c.Query("SearchTerm"),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list entries"})
		return
	}

	data := make([]entryResponse, len(result.Entries))
	for i, entry := range result.Entries {
		data[i] = toEntryResponse(entry)
	}

	c.JSON(http.StatusOK, gin.H{
		"totalRecords": result.TotalRecords,
		"page":         result.Page,
		"pageSize":     result.PageSize,
		"totalPages":   result.TotalPages,
		"data":         data,
	})
}

// GetEntry 获取单个条目（编辑表单使用）
func (a *API) GetEntry(c *gin.Context) {
	claims := currentClaims(c)

	entryID, err := strconv.ParseUint(c.Param("entryId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}

	entry, err := a.entries.Get(claims.TenantID, uint(entryID))
	if err != nil {
		if errors.Is(err, service.ErrEntryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load entry"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": entry.ID, "data": map[string]any(entry.Data)})
}

// CreateEntry 创建条目：缺失字段按默认值补齐，所有字段按类型转换
func (a *API) CreateEntry(c *gin.Context) {
	claims := currentClaims(c)

	var payload struct {
		ContentTypeID uint           `json:"contentTypeId"`
		Data          map[string]any `json:"data"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := a.entries.Create(claims.TenantID, payload.ContentTypeID, payload.Data)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrContentTypeNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "content type not found"})
		case errors.Is(err, service.ErrInvalidEntryData):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create entry"})
		}
		return
	}

	c.JSON(http.StatusOK, toEntryResponse(entry))
}

// UpdateEntry 整体替换条目的 data
func (a *API) UpdateEntry(c *gin.Context) {
	claims := currentClaims(c)

	entryID, err := strconv.ParseUint(c.Param("entryId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}

	var payload struct {
		ContentTypeID uint           `json:"contentTypeId"`
		Data          map[string]any `json:"data"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := a.entries.Update(claims.TenantID, uint(entryID), payload.Data)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEntryNotFound), errors.Is(err, service.ErrContentTypeNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
		case errors.Is(err, service.ErrInvalidEntryData):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update entry"})
		}
		return
	}

	c.JSON(http.StatusOK, toEntryResponse(entry))
}

// DeleteEntry 删除条目
func (a *API) DeleteEntry(c *gin.Context) {
	claims := currentClaims(c)

	entryID, err := strconv.ParseUint(c.Param("entryId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}

	if err := a.entries.Delete(claims.TenantID, uint(entryID)); err != nil {
		if errors.Is(err, service.ErrEntryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete entry"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "entry deleted"})
}

// ToggleEntryVisibility 翻转条目的发布状态
func (a *API) ToggleEntryVisibility(c *gin.Context) {
	claims := currentClaims(c)

	entryID, err := strconv.ParseUint(c.Param("entryId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}

	entry, err := a.entries.ToggleVisibility(claims.TenantID, uint(entryID))
	if err != nil {
		if errors.Is(err, service.ErrEntryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to toggle visibility"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": entry.ID, "isVisible": entry.IsVisible})
}

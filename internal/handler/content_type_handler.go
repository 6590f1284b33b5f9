package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/cmaas/internal/db"
	"github.com/cmaas/internal/schema"
	"github.com/cmaas/internal/service"
	"github.com/gin-gonic/gin"
)

type contentTypeResponse struct {
	ID     uint          `json:"id"`
	Name   string        `json:"name"`
	Schema schema.Schema `json:"schema"`
}

type contentTypePayload struct {
	Name   string        `json:"name"`
	Schema schema.Schema `json:"schema"`
}

func toContentTypeResponse(ct db.ContentType) contentTypeResponse {
	return contentTypeResponse{ID: ct.ID, Name: ct.Name, Schema: ct.FieldSchema()}
}

// GetContentTypes 获取当前租户的内容类型列表
func (a *API) GetContentTypes(c *gin.Context) {
	claims := currentClaims(c)

	types, err := a.types.List(claims.TenantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list content types"})
		return
	}

	out := make([]contentTypeResponse, len(types))
	for i, ct := range types {
		out[i] = toContentTypeResponse(ct)
	}
	c.JSON(http.StatusOK, out)
}

// GetContentType 获取单个内容类型
func (a *API) GetContentType(c *gin.Context) {
	claims := currentClaims(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid content type id"})
		return
	}

	ct, err := a.types.Get(claims.TenantID, uint(id))
	if err != nil {
		if errors.Is(err, service.ErrContentTypeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "content type not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load content type"})
		return
	}

	c.JSON(http.StatusOK, toContentTypeResponse(ct))
}

// CreateContentType 创建内容类型（schema authoring）
func (a *API) CreateContentType(c *gin.Context) {
	claims := currentClaims(c)

	var payload contentTypePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ct, err := a.types.Create(claims.TenantID, service.ContentTypeInput{
		Name:   payload.Name,
		Schema: payload.Schema,
	})
	if err != nil {
		if isSchemaValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create content type"})
		return
	}

	c.JSON(http.StatusOK, toContentTypeResponse(ct))
}

// UpdateContentType 更新内容类型，仅允许追加新字段（append-only evolution）
func (a *API) UpdateContentType(c *gin.Context) {
	claims := currentClaims(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid content type id"})
		return
	}

	var payload contentTypePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ct, err := a.types.Update(claims.TenantID, uint(id), service.ContentTypeInput{
		Name:   payload.Name,
		Schema: payload.Schema,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrContentTypeNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "content type not found"})
		case isSchemaValidationError(err):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update content type"})
		}
		return
	}

	c.JSON(http.StatusOK, toContentTypeResponse(ct))
}

// DeleteContentType 删除内容类型并级联删除其条目
func (a *API) DeleteContentType(c *gin.Context) {
	claims := currentClaims(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid content type id"})
		return
	}

	if err := a.types.Delete(claims.TenantID, uint(id)); err != nil {
		if errors.Is(err, service.ErrContentTypeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "content type not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete content type"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "content type deleted"})
}

func isSchemaValidationError(err error) bool {
	return errors.Is(err, service.ErrTypeNameRequired) ||
		errors.Is(err, schema.ErrNoFields) ||
		errors.Is(err, schema.ErrEmptyFieldName) ||
		errors.Is(err, schema.ErrDuplicateFieldName) ||
		errors.Is(err, schema.ErrUnknownFieldKind) ||
		errors.Is(err, schema.ErrLockedFieldChanged)
}

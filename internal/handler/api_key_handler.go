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

type apiKeyResponse struct {
	ID         uint       `json:"id"`
	Name       string     `json:"name"`
	Prefix     string     `json:"prefix"`
	CreatedAt  time.Time  `json:"createdAt"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
}

func toAPIKeyResponse(key db.APIKey) apiKeyResponse {
	return apiKeyResponse{
		ID:         key.ID,
		Name:       key.Name,
		Prefix:     key.Prefix,
		CreatedAt:  key.CreatedAt,
		LastUsedAt: key.LastUsedAt,
	}
}

// GetAPIKeys lists the tenant's keys with masked secrets.
func (a *API) GetAPIKeys(c *gin.Context) {
	claims := currentClaims(c)

	keys, err := a.apiKeys.List(claims.TenantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list api keys"})
		return
	}

	out := make([]apiKeyResponse, len(keys))
	for i, key := range keys {
		out[i] = toAPIKeyResponse(key)
	}
	c.JSON(http.StatusOK, out)
}

// CreateAPIKey issues a key. The response carries the full secret once;
// it cannot be recovered afterwards.
func (a *API) CreateAPIKey(c *gin.Context) {
	claims := currentClaims(c)

	var payload struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	key, secret, err := a.apiKeys.Issue(claims.TenantID, payload.Name)
	if err != nil {
		if errors.Is(err, service.ErrAPIKeyNameRequired) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "api key name is required"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create api key"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":        key.ID,
		"name":      key.Name,
		"key":       secret,
		"createdAt": key.CreatedAt,
	})
}

// DeleteAPIKey revokes a key.
func (a *API) DeleteAPIKey(c *gin.Context) {
	claims := currentClaims(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid api key id"})
		return
	}

	if err := a.apiKeys.Revoke(claims.TenantID, uint(id)); err != nil {
		if errors.Is(err, service.ErrAPIKeyNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "api key not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete api key"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "api key deleted"})
}

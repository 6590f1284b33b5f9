package handler

import (
	"time"

	"github.com/cmaas/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db        *gorm.DB
	auth      *service.AuthService
	types     *service.ContentTypeService
	entries   *service.EntryService
	apiKeys   *service.APIKeyService
	uploadDir string
	uploadURL string
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, jwtSecret, uploadDir, uploadURL string) *API {
	return &API{
		db:        gdb,
		auth:      service.NewAuthService(gdb, jwtSecret, 24*time.Hour),
		types:     service.NewContentTypeService(gdb),
		entries:   service.NewEntryService(gdb),
		apiKeys:   service.NewAPIKeyService(gdb),
		uploadDir: uploadDir,
		uploadURL: uploadURL,
	}
}

// DB exposes the underlying gorm instance.
func (a *API) DB() *gorm.DB {
	return a.db
}

package router

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/cmaas/internal/db"
	"github.com/cmaas/internal/handler"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRouterTest(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := gdb.AutoMigrate(&db.Tenant{}, &db.User{}, &db.ContentType{}, &db.ContentEntry{}, &db.APIKey{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	db.DB = gdb

	api := handler.NewAPI(gdb, "test-secret", t.TempDir(), "/static/uploads")
	return SetupRouter(api, "", "")
}

func TestPingRoute(t *testing.T) {
	r := setupRouterTest(t)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
}

func TestProtectedRoutesRequireBearerToken(t *testing.T) {
	r := setupRouterTest(t)

	for _, path := range []string{"/api/ContentTypes", "/api/ApiKeys", "/api/auth/me"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %s without token, got %d", path, rr.Code)
		}
	}
}

func TestSetupRouterServesUploads(t *testing.T) {
	gin.SetMode(gin.TestMode)

	uploadDir := t.TempDir()
	fileName := "example.txt"
	fileContent := []byte("hello uploads")
	if err := os.WriteFile(filepath.Join(uploadDir, fileName), fileContent, 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	api := handler.NewAPI(nil, "test-secret", uploadDir, "/static/uploads")
	r := SetupRouter(api, uploadDir, "/static/uploads")

	req := httptest.NewRequest(http.MethodGet, "/static/uploads/"+fileName, nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if rr.Body.String() != string(fileContent) {
		t.Fatalf("unexpected body, got %q", rr.Body.String())
	}
}

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/cmaas/internal/db"
	"github.com/cmaas/internal/handler"
	"github.com/cmaas/internal/router"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type e2eSuite struct {
	handler   http.Handler
	token     string
	uploadDir string
	typeID    uint
	entryIDs  []uint
	apiKey    string
}

type localClient struct {
	handler http.Handler
}

func (c *localClient) do(req *http.Request) *http.Response {
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)
	return w.Result()
}

func TestE2E_AdminAndDeliveryFlow(t *testing.T) {
	suite := newE2ESuite(t)

	t.Run("register and login", suite.testAuth)
	t.Run("content type authoring", suite.testContentTypes)
	t.Run("entry lifecycle", suite.testEntries)
	t.Run("tenant isolation", suite.testTenantIsolation)
	t.Run("api keys and delivery", suite.testDelivery)
	t.Run("image upload", suite.testUpload)
}

func newE2ESuite(t *testing.T) *e2eSuite {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	if err := gdb.AutoMigrate(
		&db.Tenant{},
		&db.User{},
		&db.ContentType{},
		&db.ContentEntry{},
		&db.APIKey{},
	); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	uploadDir := t.TempDir()
	api := handler.NewAPI(gdb, "e2e-secret", uploadDir, "/static/uploads")
	engine := router.SetupRouter(api, uploadDir, "/static/uploads")

	return &e2eSuite{handler: engine, uploadDir: uploadDir}
}

func (s *e2eSuite) request(t *testing.T, method, path string, body any, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp := (&localClient{handler: s.handler}).do(req)
	defer resp.Body.Close()

	var payload map[string]any
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		json.Unmarshal(raw, &payload)
	}
	return resp, payload
}

func (s *e2eSuite) testAuth(t *testing.T) {
	resp, payload := s.request(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email":    "owner@example.com",
		"password": "e2e-secret-pass",
		"name":     "Owner",
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register returned %d: %v", resp.StatusCode, payload)
	}
	token, _ := payload["token"].(string)
	if token == "" {
		t.Fatal("expected a token from register")
	}

	// 无令牌访问受保护路由应返回 401
	s.token = ""
	resp, _ = s.request(t, http.MethodGet, "/api/ContentTypes", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}

	resp, _ = s.request(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "owner@example.com",
		"password": "wrong",
	}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", resp.StatusCode)
	}

	resp, payload = s.request(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "owner@example.com",
		"password": "e2e-secret-pass",
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login returned %d: %v", resp.StatusCode, payload)
	}
	s.token, _ = payload["token"].(string)

	resp, payload = s.request(t, http.MethodGet, "/api/auth/me", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me returned %d: %v", resp.StatusCode, payload)
	}
	if payload["email"] != "owner@example.com" {
		t.Fatalf("unexpected account payload: %v", payload)
	}
}

func (s *e2eSuite) testContentTypes(t *testing.T) {
	articleSchema := map[string]any{"fields": []map[string]string{
		{"name": "title", "type": "string"},
		{"name": "body", "type": "richtext"},
		{"name": "price", "type": "number"},
		{"name": "published", "type": "boolean"},
	}}

	resp, payload := s.request(t, http.MethodPost, "/api/ContentTypes", map[string]any{
		"name":   "Article",
		"schema": articleSchema,
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create content type returned %d: %v", resp.StatusCode, payload)
	}
	s.typeID = uint(payload["id"].(float64))

	// 重复字段名应被拒绝
	resp, _ = s.request(t, http.MethodPost, "/api/ContentTypes", map[string]any{
		"name": "Broken",
		"schema": map[string]any{"fields": []map[string]string{
			{"name": "title", "type": "string"},
			{"name": "Title", "type": "number"},
		}},
	}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate field names, got %d", resp.StatusCode)
	}

	// 演进只允许追加：重命名已有字段应被拒绝
	resp, _ = s.request(t, http.MethodPut, fmt.Sprintf("/api/ContentTypes/%d", s.typeID), map[string]any{
		"name": "Article",
		"schema": map[string]any{"fields": []map[string]string{
			{"name": "headline", "type": "string"},
			{"name": "body", "type": "richtext"},
			{"name": "price", "type": "number"},
			{"name": "published", "type": "boolean"},
		}},
	}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for renamed locked field, got %d", resp.StatusCode)
	}

	appended := articleSchema["fields"].([]map[string]string)
	appended = append(appended, map[string]string{"name": "tags", "type": "array"})
	resp, payload = s.request(t, http.MethodPut, fmt.Sprintf("/api/ContentTypes/%d", s.typeID), map[string]any{
		"name":   "Article",
		"schema": map[string]any{"fields": appended},
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("append evolution returned %d: %v", resp.StatusCode, payload)
	}

	resp, payload = s.request(t, http.MethodGet, fmt.Sprintf("/api/ContentTypes/%d", s.typeID), nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get content type returned %d: %v", resp.StatusCode, payload)
	}
	fields := payload["schema"].(map[string]any)["fields"].([]any)
	if len(fields) != 5 {
		t.Fatalf("expected 5 fields after evolution, got %d", len(fields))
	}
}

func (s *e2eSuite) testEntries(t *testing.T) {
	for i := 1; i <= 12; i++ {
		resp, payload := s.request(t, http.MethodPost, "/api/ContentEntries", map[string]any{
			"contentTypeId": s.typeID,
			"data": map[string]any{
				"title":     fmt.Sprintf("Story %d", i),
				"body":      "## Heading\nSome **bold** body text.",
				"price":     "19.99",
				"published": i%2 == 0,
				"tags":      "go, cms",
			},
		}, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("create entry %d returned %d: %v", i, resp.StatusCode, payload)
		}
		s.entryIDs = append(s.entryIDs, uint(payload["id"].(float64)))

		data := payload["data"].(map[string]any)
		if data["price"] != 19.99 {
			t.Fatalf("expected coerced number, got %v", data["price"])
		}
	}

	// 无法解析的数字输入应返回 400
	resp, _ := s.request(t, http.MethodPost, "/api/ContentEntries", map[string]any{
		"contentTypeId": s.typeID,
		"data":          map[string]any{"title": "bad", "price": "abc"},
	}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unparseable number, got %d", resp.StatusCode)
	}

	resp, payload := s.request(t, http.MethodGet,
		fmt.Sprintf("/api/ContentEntries/%d?Page=2&PageSize=5", s.typeID), nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list returned %d: %v", resp.StatusCode, payload)
	}
	if payload["totalRecords"].(float64) != 12 || payload["totalPages"].(float64) != 3 {
		t.Fatalf("unexpected pagination counters: %v", payload)
	}
	if got := len(payload["data"].([]any)); got != 5 {
		t.Fatalf("expected 5 entries on page 2, got %d", got)
	}

	resp, payload = s.request(t, http.MethodGet,
		fmt.Sprintf("/api/ContentEntries/%d?SearchTerm=Story+3", s.typeID), nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("search returned %d: %v", resp.StatusCode, payload)
	}
	if payload["totalRecords"].(float64) != 1 {
		t.Fatalf("expected one search hit, got %v", payload["totalRecords"])
	}

	first := s.entryIDs[0]
	resp, payload = s.request(t, http.MethodGet, fmt.Sprintf("/api/ContentEntries/entry/%d", first), nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get entry returned %d: %v", resp.StatusCode, payload)
	}
	if payload["data"].(map[string]any)["title"] != "Story 1" {
		t.Fatalf("unexpected entry payload: %v", payload)
	}

	// 更新整体替换数据：缺失的键不会被保留
	resp, payload = s.request(t, http.MethodPut, fmt.Sprintf("/api/ContentEntries/%d", first), map[string]any{
		"contentTypeId": s.typeID,
		"data":          map[string]any{"title": "Story 1 updated", "price": "5"},
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update returned %d: %v", resp.StatusCode, payload)
	}
	if payload["data"].(map[string]any)["title"] != "Story 1 updated" {
		t.Fatalf("unexpected updated data: %v", payload)
	}

	resp, payload = s.request(t, http.MethodPatch,
		fmt.Sprintf("/api/ContentEntries/%d/toggle-visibility", first), nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("toggle returned %d: %v", resp.StatusCode, payload)
	}
	if payload["isVisible"] != false {
		t.Fatalf("expected entry hidden after toggle, got %v", payload)
	}

	last := s.entryIDs[len(s.entryIDs)-1]
	resp, _ = s.request(t, http.MethodDelete, fmt.Sprintf("/api/ContentEntries/entry/%d", last), nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete returned %d", resp.StatusCode)
	}
	s.entryIDs = s.entryIDs[:len(s.entryIDs)-1]
}

func (s *e2eSuite) testTenantIsolation(t *testing.T) {
	ownerToken := s.token

	resp, payload := s.request(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email":    "other@example.com",
		"password": "other-pass-123",
		"name":     "Other",
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("second register returned %d: %v", resp.StatusCode, payload)
	}
	s.token = payload["token"].(string)

	resp, _ = s.request(t, http.MethodGet, fmt.Sprintf("/api/ContentTypes/%d", s.typeID), nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 across tenants, got %d", resp.StatusCode)
	}

	resp, payload = s.request(t, http.MethodGet, "/api/ContentTypes", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list returned %d: %v", resp.StatusCode, payload)
	}

	s.token = ownerToken
}

func (s *e2eSuite) testDelivery(t *testing.T) {
	resp, payload := s.request(t, http.MethodPost, "/api/ApiKeys", map[string]string{"name": "website"}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create api key returned %d: %v", resp.StatusCode, payload)
	}
	s.apiKey, _ = payload["key"].(string)
	if !strings.HasPrefix(s.apiKey, "cmk_") {
		t.Fatalf("unexpected key format: %q", s.apiKey)
	}

	listReq := httptest.NewRequest(http.MethodGet, "/api/ApiKeys", nil)
	listReq.Header.Set("Authorization", "Bearer "+s.token)
	listResp := (&localClient{handler: s.handler}).do(listReq)
	defer listResp.Body.Close()
	var keys []map[string]any
	if err := json.NewDecoder(listResp.Body).Decode(&keys); err != nil {
		t.Fatalf("failed to decode key list: %v", err)
	}
	if len(keys) != 1 {
		t.Fatalf("expected one key, got %d", len(keys))
	}
	if _, leaked := keys[0]["key"]; leaked {
		t.Fatal("key list must not expose the secret")
	}
	if keys[0]["prefix"] == "" {
		t.Fatal("expected masked prefix in key list")
	}

	// 交付 API：大小写不敏感的类型名，只返回可见条目
	token := s.token
	s.token = ""
	resp, payload = s.request(t, http.MethodGet, "/api/public/article", nil, map[string]string{"X-API-Key": s.apiKey})
	s.token = token
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("public list returned %d: %v", resp.StatusCode, payload)
	}
	entries := payload["data"].([]any)
	if len(entries) != len(s.entryIDs)-1 {
		t.Fatalf("expected hidden entry excluded: got %d of %d", len(entries), len(s.entryIDs))
	}
	body := entries[0].(map[string]any)["data"].(map[string]any)["body"].(string)
	if !strings.Contains(body, "<h2") || !strings.Contains(body, "<strong>") {
		t.Fatalf("expected rendered markdown in delivery payload, got %q", body)
	}

	resp, _ = s.request(t, http.MethodGet, "/api/public/article", nil, map[string]string{"X-API-Key": "cmk_bogus"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad key, got %d", resp.StatusCode)
	}
}

func (s *e2eSuite) testUpload(t *testing.T) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="image"; filename="pixel.png"`)
	header.Set("Content-Type", "image/png")
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("failed to create multipart field: %v", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	if err := png.Encode(part, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.token)
	resp := (&localClient{handler: s.handler}).do(req)
	defer resp.Body.Close()

	var payload map[string]any
	json.NewDecoder(resp.Body).Decode(&payload)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload returned %d: %v", resp.StatusCode, payload)
	}
	if payload["width"].(float64) != 3 || payload["height"].(float64) != 2 {
		t.Fatalf("unexpected probed dimensions: %v", payload)
	}
	url, _ := payload["url"].(string)
	if !strings.HasPrefix(url, "/static/uploads/") {
		t.Fatalf("unexpected upload url: %q", url)
	}

	referenceID, _ := payload["referenceId"].(string)
	delResp, _ := s.request(t, http.MethodDelete, "/api/upload/"+referenceID, nil, nil)
	if delResp.StatusCode != http.StatusOK {
		t.Fatalf("delete upload returned %d", delResp.StatusCode)
	}
}

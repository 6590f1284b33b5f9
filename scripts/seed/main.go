package main

import (
	"fmt"
	"log"
	"time"

	"github.com/cmaas/internal/config"
	"github.com/cmaas/internal/db"
	"github.com/cmaas/internal/schema"
	"github.com/cmaas/internal/service"
)

// 演示数据生成器
func main() {
	cfg := config.Load()
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	fmt.Println("开始生成演示数据...")

	tenantID := createDemoAccount()
	if tenantID == 0 {
		return
	}

	createDemoContent(tenantID)

	fmt.Println("演示数据生成完成！")
	fmt.Println("账号: demo@example.com (密码: demo1234)")
}

// 创建演示租户和管理员账号
func createDemoAccount() uint {
	var count int64
	db.DB.Model(&db.User{}).Count(&count)
	if count > 0 {
		fmt.Println("用户已存在，跳过创建")
		var user db.User
		if err := db.DB.First(&user).Error; err != nil {
			log.Fatal("读取已有用户失败:", err)
		}
		return user.TenantID
	}

	auth := service.NewAuthService(db.DB, "seed-unused-secret", time.Hour)
	user, err := auth.Register("demo@example.com", "demo1234", "Demo Workspace")
	if err != nil {
		log.Fatal("创建演示账号失败:", err)
	}

	fmt.Println("✅ 演示账号创建完成")
	return user.TenantID
}

// 创建演示内容模型和条目
func createDemoContent(tenantID uint) {
	var count int64
	db.DB.Model(&db.ContentType{}).Where("tenant_id = ?", tenantID).Count(&count)
	if count > 0 {
		fmt.Println("内容模型已存在，跳过创建")
		return
	}

	types := service.NewContentTypeService(db.DB)
	entries := service.NewEntryService(db.DB)

	article, err := types.Create(tenantID, service.ContentTypeInput{
		Name: "Article",
		Schema: schema.Schema{Fields: []schema.FieldDefinition{
			{Name: "title", Type: "string"},
			{Name: "body", Type: "richtext"},
			{Name: "publishedAt", Type: "datetime"},
			{Name: "featured", Type: "boolean"},
			{Name: "tags", Type: "array"},
		}},
	})
	if err != nil {
		log.Fatal("创建 Article 模型失败:", err)
	}

	product, err := types.Create(tenantID, service.ContentTypeInput{
		Name: "Product",
		Schema: schema.Schema{Fields: []schema.FieldDefinition{
			{Name: "name", Type: "string"},
			{Name: "price", Type: "number"},
			{Name: "photo", Type: "image"},
			{Name: "inStock", Type: "boolean"},
		}},
	})
	if err != nil {
		log.Fatal("创建 Product 模型失败:", err)
	}

	articleData := []map[string]any{
		{
			"title":       "Getting started with your content workspace",
			"body":        "Welcome! This entry was created by the seed tool.\n\nOpen the Article type to edit it.",
			"publishedAt": "2026-08-01T09:00",
			"featured":    true,
			"tags":        "guide, onboarding",
		},
		{
			"title":       "Schema evolution keeps old entries readable",
			"body":        "Fields can be appended at any time. Existing entries simply show defaults for the new fields.",
			"publishedAt": "2026-08-15T14:30",
			"featured":    false,
			"tags":        "schema, tips",
		},
	}
	for _, data := range articleData {
		if _, err := entries.Create(tenantID, article.ID, data); err != nil {
			log.Fatal("创建 Article 条目失败:", err)
		}
	}

	productData := []map[string]any{
		{"name": "Field Notebook", "price": "12.5", "photo": "", "inStock": true},
		{"name": "Desk Lamp", "price": "849", "photo": "", "inStock": false},
	}
	for _, data := range productData {
		if _, err := entries.Create(tenantID, product.ID, data); err != nil {
			log.Fatal("创建 Product 条目失败:", err)
		}
	}

	fmt.Println("✅ 演示内容创建完成")
	fmt.Printf("内容模型: %s、%s\n", article.Name, product.Name)
}

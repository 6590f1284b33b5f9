package main

import (
	"log"

	"github.com/cmaas/internal/config"
	"github.com/cmaas/internal/db"
	"github.com/cmaas/internal/handler"
	"github.com/cmaas/internal/router"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	// 引导账号（可选，从环境变量读取）
	if err := db.EnsureUser(cfg.BootstrapEmail, cfg.BootstrapPassword); err != nil {
		log.Fatalf("failed to ensure bootstrap user: %v", err)
	}

	api := handler.NewAPI(db.DB, cfg.JWTSecret, cfg.UploadDir, cfg.UploadURLPath)

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(api, cfg.UploadDir, cfg.UploadURLPath)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}

package router

import (
	"net/http"

	"github.com/cmaas/internal/handler"
	"github.com/gin-gonic/gin"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, uploadDir, uploadURLPath string) *gin.Engine {
	r := gin.Default()

	// 上传文件静态服务
	if uploadDir != "" && uploadURLPath != "" {
		r.Static(uploadURLPath, uploadDir)
	}

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiGroup := r.Group("/api")
	{
		apiGroup.POST("/auth/register", api.Register)
		apiGroup.POST("/auth/login", api.Login)

		// 交付 API 使用 API Key 认证
		apiGroup.GET("/public/:typeName", api.PublicEntries)

		// 需要 Bearer Token 的管理路由
		auth := apiGroup.Group("")
		auth.Use(api.AuthRequired())
		{
			auth.GET("/auth/me", api.Me)

			auth.GET("/ContentTypes", api.GetContentTypes)
			auth.GET("/ContentTypes/:id", api.GetContentType)
			auth.POST("/ContentTypes", api.CreateContentType)
			auth.PUT("/ContentTypes/:id", api.UpdateContentType)
			auth.DELETE("/ContentTypes/:id", api.DeleteContentType)

			auth.GET("/ContentEntries/:contentTypeId", api.GetEntries)
			auth.GET("/ContentEntries/entry/:entryId", api.GetEntry)
			auth.POST("/ContentEntries", api.CreateEntry)
			auth.PUT("/ContentEntries/:entryId", api.UpdateEntry)
			auth.DELETE("/ContentEntries/entry/:entryId", api.DeleteEntry)
			auth.PATCH("/ContentEntries/:entryId/toggle-visibility", api.ToggleEntryVisibility)

			auth.GET("/ApiKeys", api.GetAPIKeys)
			auth.POST("/ApiKeys", api.CreateAPIKey)
			auth.DELETE("/ApiKeys/:id", api.DeleteAPIKey)

			auth.POST("/upload", api.UploadImage)
			auth.DELETE("/upload/:referenceId", api.DeleteImage)
		}
	}

	return r
}

package handler

import (
	"fmt"
	"image"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// UploadImage 处理图片上传请求：保存文件并返回可持久引用的 URL。
// image 字段类型的编辑控件将该 URL 存入条目数据。
func (a *API) UploadImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no image file in request"})
		return
	}

	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only image files are allowed"})
		return
	}

	if err := os.MkdirAll(a.uploadDir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to prepare upload directory"})
		return
	}

	// 生成唯一文件名
	ext := filepath.Ext(file.Filename)
	newFilename := fmt.Sprintf("%s-%s%s", time.Now().Format("20060102"), uuid.New().String(), ext)
	filePath := filepath.Join(a.uploadDir, newFilename)

	if err := c.SaveUploadedFile(file, filePath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save file"})
		return
	}

	width, height := probeImageSize(filePath)

	c.JSON(http.StatusOK, gin.H{
		"url":         fmt.Sprintf("%s/%s", a.uploadURL, newFilename),
		"referenceId": newFilename,
		"width":       width,
		"height":      height,
	})
}

// DeleteImage 按引用 ID 删除已上传的图片。
func (a *API) DeleteImage(c *gin.Context) {
	ref := filepath.Base(c.Param("referenceId"))
	if ref == "" || ref == "." || ref == string(filepath.Separator) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reference id"})
		return
	}

	path := filepath.Join(a.uploadDir, ref)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete image"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "image deleted"})
}

// probeImageSize decodes only the image header. Zero values mean the format
// was not recognized; the upload is still accepted.
func probeImageSize(path string) (int, int) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

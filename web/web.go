// Package web serves the embedded landing and upload management pages.
package web

import (
	"embed"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed pages/*.html
var pages embed.FS

// Page names accepted by Handler.
const (
	IndexPage  = "index.html"
	UploadPage = "upload.html"
)

// RegisterRoutes mounts GET / and GET /upload.
func RegisterRoutes(router gin.IRoutes) {
	router.GET("/", Handler(IndexPage))
	router.GET("/upload", Handler(UploadPage))
}

// Handler serves one embedded page. It panics at startup for an unknown page.
func Handler(name string) gin.HandlerFunc {
	content, err := pages.ReadFile("pages/" + name)
	if err != nil {
		panic("web: missing page " + name)
	}
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-cache")
		c.Data(http.StatusOK, "text/html; charset=utf-8", content)
	}
}

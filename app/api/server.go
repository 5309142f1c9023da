package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lysyi3m/rss-seek/app/metrics"
)

func NewServer(handler *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
		SkipPaths: []string{"/metrics"},
	}))

	r.Use(gin.Recovery())
	r.Use(metrics.Middleware())

	// Browser clients call the API from other origins
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler) {
	r.POST("/search", handler.Search)

	r.POST("/seedr-download", handler.SeedrDownload)
	r.POST("/seedr-download/jobs", handler.CreateOffloadJob)
	r.GET("/seedr-download/jobs/:id", handler.GetOffloadJob)
	r.GET("/seedr-download/:folderId", handler.SeedrFolderDownload)
	r.GET("/seedr-status", handler.SeedrStatus)
	r.DELETE("/seedr-folder/:folderId", handler.SeedrDeleteFolder)

	r.GET("/health", handler.GetHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":     "RSS Seek",
			"version":     handler.version,
			"description": "Semantic movie search over RSS feeds with magnet extraction and Seedr offload",
			"endpoints": map[string]string{
				"search":        "POST /search",
				"offload":       "POST /seedr-download",
				"offload_job":   "POST /seedr-download/jobs, GET /seedr-download/jobs/<id>",
				"folder_link":   "GET /seedr-download/<folderId>",
				"delete_folder": "DELETE /seedr-folder/<folderId>",
				"status":        "GET /seedr-status",
				"health":        "GET /health",
				"metrics":       "GET /metrics",
			},
			"seedr_enabled": handler.seedr != nil,
		})
	})

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
}

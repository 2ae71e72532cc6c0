package handlers

import (
	"context"
	"net/http"
	"time"

	"lifelog/backend/internal/database"
	"lifelog/backend/pkg/config"
	applog "lifelog/backend/pkg/log"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthCheckHandler answers as long as the process is serving.
func HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

// DetailedHealthCheckHandler also pings the database and answers 503 when it is unreachable.
func DetailedHealthCheckHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := database.Ping(ctx); err != nil {
		applog.L.Error("Database ping failed during health check", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "error",
			"database": "disconnected",
			"version":  config.Cfg.AppVersion,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"database":    "connected",
		"version":     config.Cfg.AppVersion,
		"environment": config.Cfg.Environment,
		"timestamp":   time.Now().UTC(),
	})
}

// APIInfoHandler lists the module prefixes served under /api.
func APIInfoHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    "LifeLog API",
		"version": config.Cfg.AppVersion,
		"endpoints": []string{
			"/api/auth", "/api/boards", "/api/tasks", "/api/journals",
			"/api/notebooks", "/api/notes", "/api/tags",
			"/api/vault/categories", "/api/vault/items",
			"/api/documents/categories", "/api/documents",
			"/api/locations", "/api/items", "/api/lendings",
		},
	})
}

// NotFoundHandler is the JSON fallback for unmatched routes.
func NotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "Route not found", "path": c.Request.URL.Path})
}

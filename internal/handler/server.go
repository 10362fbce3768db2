// Package handler contains the admin API handlers.
package handler

import (
	"net/http"
	"time"

	"campwatch/internal/config"
	"campwatch/internal/notify"
	"campwatch/internal/version"

	"github.com/gin-gonic/gin"
	"go.uber.org/dig"
	"gorm.io/gorm"
)

// Server bundles the dependencies shared by all API handlers.
type Server struct {
	DB              *gorm.DB
	SettingsManager *config.SystemSettingsManager
	TwilioClient    *notify.TwilioClient
}

// ServerParams defines the dependencies for the handler server.
type ServerParams struct {
	dig.In
	DB              *gorm.DB
	SettingsManager *config.SystemSettingsManager
	TwilioClient    *notify.TwilioClient
}

// NewServer creates the handler server.
func NewServer(params ServerParams) *Server {
	return &Server{
		DB:              params.DB,
		SettingsManager: params.SettingsManager,
		TwilioClient:    params.TwilioClient,
	}
}

// Health handles the liveness probe, including a database connectivity check.
func (s *Server) Health(c *gin.Context) {
	uptime := ""
	if startTime, exists := c.Get("serverStartTime"); exists {
		if t, ok := startTime.(time.Time); ok {
			uptime = time.Since(t).Truncate(time.Second).String()
		}
	}

	dbStatus := "ok"
	if s.DB != nil {
		sqlDB, err := s.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"database":  "unavailable",
				"version":   version.Version,
				"uptime":    uptime,
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"database":  dbStatus,
		"version":   version.Version,
		"uptime":    uptime,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

package router

import (
	"net/http"
	"strings"
	"time"

	"campwatch/internal/handler"
	"campwatch/internal/middleware"
	"campwatch/internal/types"

	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine with global middleware and all routes.
func NewRouter(
	serverHandler *handler.Server,
	configManager types.ConfigManager,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Register global middleware
	router.Use(middleware.Recovery())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Logger(configManager.GetLogConfig()))
	router.Use(middleware.CORS(configManager.GetCORSConfig()))
	startTime := time.Now()
	router.Use(func(c *gin.Context) {
		c.Set("serverStartTime", startTime)
		c.Next()
	})

	registerSystemRoutes(router, serverHandler)
	registerAPIRoutes(router, serverHandler, configManager)

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.RequestURI, "/api") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not Found"})
			return
		}
		c.Status(http.StatusNotFound)
	})

	return router
}

// registerSystemRoutes registers system-level routes
func registerSystemRoutes(router *gin.Engine, serverHandler *handler.Server) {
	router.GET("/health", serverHandler.Health)
}

// registerAPIRoutes registers API routes
func registerAPIRoutes(
	router *gin.Engine,
	serverHandler *handler.Server,
	configManager types.ConfigManager,
) {
	api := router.Group("/api")
	api.Use(middleware.Auth(configManager.GetAuthConfig()))

	users := api.Group("/users")
	{
		users.GET("", serverHandler.ListUsers)
		users.POST("", serverHandler.CreateUser)
		users.DELETE("/:id", serverHandler.DeleteUser)
	}

	contacts := api.Group("/contacts")
	{
		contacts.GET("", serverHandler.ListContacts)
		contacts.POST("", serverHandler.CreateContact)
		contacts.DELETE("/:id", serverHandler.DeleteContact)
		contacts.POST("/:id/verify", serverHandler.StartContactVerification)
		contacts.POST("/:id/verify/check", serverHandler.CheckContactVerification)
	}

	alerts := api.Group("/alerts")
	{
		alerts.GET("", serverHandler.ListAlerts)
		alerts.GET("/:id", serverHandler.GetAlert)
		alerts.POST("", serverHandler.CreateAlert)
		alerts.PUT("/:id", serverHandler.UpdateAlert)
		alerts.DELETE("/:id", serverHandler.DeleteAlert)
		alerts.PUT("/:id/toggle-status", serverHandler.ToggleAlertStatus)
	}

	settings := api.Group("/settings")
	{
		settings.GET("", serverHandler.GetSettings)
		settings.PUT("", serverHandler.UpdateSettings)
	}

	api.GET("/logs", serverHandler.GetLogs)
}

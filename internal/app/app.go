// Package app provides the main application logic and lifecycle management.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"campwatch/internal/config"
	"campwatch/internal/httpclient"
	"campwatch/internal/models"
	"campwatch/internal/scanner"
	"campwatch/internal/store"
	"campwatch/internal/types"
	"campwatch/internal/version"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.uber.org/dig"
	"gorm.io/gorm"
)

// App holds all services and manages the application lifecycle.
type App struct {
	engine            *gin.Engine
	configManager     types.ConfigManager
	settingsManager   *config.SystemSettingsManager
	scanner           *scanner.Scanner
	httpClientManager *httpclient.HTTPClientManager
	storage           store.Store
	db                *gorm.DB
	httpServer        *http.Server
}

// AppParams defines the dependencies for the App.
type AppParams struct {
	dig.In
	Engine            *gin.Engine
	ConfigManager     types.ConfigManager
	SettingsManager   *config.SystemSettingsManager
	Scanner           *scanner.Scanner
	HTTPClientManager *httpclient.HTTPClientManager
	Storage           store.Store
	DB                *gorm.DB
}

// NewApp is the constructor for App, with dependencies injected by dig.
func NewApp(params AppParams) *App {
	return &App{
		engine:            params.Engine,
		configManager:     params.ConfigManager,
		settingsManager:   params.SettingsManager,
		scanner:           params.Scanner,
		httpClientManager: params.HTTPClientManager,
		storage:           params.Storage,
		db:                params.DB,
	}
}

// Start runs the application, it is a non-blocking call.
func (a *App) Start() error {
	if err := a.db.AutoMigrate(
		&models.SystemSetting{},
		&models.User{},
		&models.Contact{},
		&models.Alert{},
		&models.NotificationLog{},
	); err != nil {
		return fmt.Errorf("database auto-migration failed: %w", err)
	}
	logrus.Info("Database auto-migration completed.")

	if err := a.settingsManager.Initialize(a.db); err != nil {
		return fmt.Errorf("failed to initialize system settings: %w", err)
	}
	logrus.Info("System settings initialized in DB.")

	if err := a.ensureAdminUser(); err != nil {
		return fmt.Errorf("failed to bootstrap admin user: %w", err)
	}

	a.configManager.DisplayServerConfig()

	a.scanner.Start()

	serverConfig := a.configManager.GetEffectiveServerConfig()
	a.httpServer = &http.Server{
		Addr:           fmt.Sprintf("%s:%d", serverConfig.Host, serverConfig.Port),
		Handler:        a.engine,
		ReadTimeout:    time.Duration(serverConfig.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(serverConfig.WriteTimeout) * time.Second,
		IdleTimeout:    time.Duration(serverConfig.IdleTimeout) * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		logrus.Infof("Campwatch started successfully on Version: %s", version.Version)
		logrus.Infof("Server address: http://%s:%d", serverConfig.Host, serverConfig.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Server startup failed: %v", err)
		}
	}()

	return nil
}

// ensureAdminUser creates a default admin account on an empty user table so a
// fresh install is reachable through the API.
func (a *App) ensureAdminUser() error {
	var count int64
	if err := a.db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	admin := models.User{Username: "admin", IsAdmin: true}
	if err := admin.SetPassword("admin"); err != nil {
		return err
	}
	if err := a.db.Create(&admin).Error; err != nil {
		return err
	}
	logrus.Warn("Created default admin user with password 'admin'; change it immediately")
	return nil
}

// Stop gracefully shuts down the application.
func (a *App) Stop(ctx context.Context) {
	logrus.Info("Shutting down server...")

	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(ctx); err != nil {
			logrus.Debug("HTTP server graceful shutdown timed out, forcing remaining connections to close.")
			if closeErr := a.httpServer.Close(); closeErr != nil {
				logrus.Errorf("Error forcing HTTP server to close: %v", closeErr)
			}
		}
		logrus.Info("HTTP server has been shut down.")
	}

	a.scanner.Stop(ctx)

	if a.httpClientManager != nil {
		a.httpClientManager.CloseIdleConnections()
	}

	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			logrus.Errorf("Error closing storage: %v", err)
		}
	}

	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				logrus.Errorf("Error closing database connection: %v", err)
			}
		}
	}

	logrus.Info("Server exited gracefully")
}

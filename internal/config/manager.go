// Package config provides environment configuration and database-backed system settings.
package config

import (
	"fmt"

	"campwatch/internal/types"
	"campwatch/internal/utils"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Constants holds validation bounds for the environment configuration.
var DefaultConstants = struct {
	MinPort    int
	MaxPort    int
	MinTimeout int
}{
	MinPort:    1,
	MaxPort:    65535,
	MinTimeout: 1,
}

// envConfig is the flat environment variable schema.
type envConfig struct {
	Host                    string   `env:"HOST" envDefault:"0.0.0.0"`
	Port                    int      `env:"PORT" envDefault:"3001"`
	ReadTimeout             int      `env:"SERVER_READ_TIMEOUT" envDefault:"60"`
	WriteTimeout            int      `env:"SERVER_WRITE_TIMEOUT" envDefault:"60"`
	IdleTimeout             int      `env:"SERVER_IDLE_TIMEOUT" envDefault:"120"`
	GracefulShutdownTimeout int      `env:"SERVER_GRACEFUL_SHUTDOWN_TIMEOUT" envDefault:"10"`
	AuthKey                 string   `env:"AUTH_KEY"`
	DatabaseDSN             string   `env:"DATABASE_DSN" envDefault:"./data/campwatch.db"`
	CORSEnabled             bool     `env:"ENABLE_CORS" envDefault:"false"`
	CORSAllowedOrigins      []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	CORSAllowCredentials    bool     `env:"ALLOW_CREDENTIALS" envDefault:"false"`
	LogLevel                string   `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat               string   `env:"LOG_FORMAT" envDefault:"text"`
	LogEnableFile           bool     `env:"LOG_ENABLE_FILE" envDefault:"false"`
	LogFilePath             string   `env:"LOG_FILE_PATH" envDefault:"./data/logs/campwatch.log"`
}

// Manager implements types.ConfigManager on top of environment variables.
type Manager struct {
	cfg envConfig
}

// NewManager loads .env (when present) and parses the environment.
func NewManager() (types.ConfigManager, error) {
	if err := godotenv.Load(); err == nil {
		logrus.Debug("Loaded configuration from .env file")
	}

	var cfg envConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment configuration: %w", err)
	}

	manager := &Manager{cfg: cfg}
	if err := manager.Validate(); err != nil {
		return nil, err
	}
	return manager, nil
}

// Validate checks configuration bounds.
func (m *Manager) Validate() error {
	if m.cfg.Port < DefaultConstants.MinPort || m.cfg.Port > DefaultConstants.MaxPort {
		return fmt.Errorf("invalid port: %d", m.cfg.Port)
	}
	if m.cfg.ReadTimeout < DefaultConstants.MinTimeout ||
		m.cfg.WriteTimeout < DefaultConstants.MinTimeout ||
		m.cfg.IdleTimeout < DefaultConstants.MinTimeout {
		return fmt.Errorf("server timeouts must be at least %d second(s)", DefaultConstants.MinTimeout)
	}
	return nil
}

// GetEffectiveServerConfig returns the server configuration.
func (m *Manager) GetEffectiveServerConfig() types.ServerConfig {
	return types.ServerConfig{
		Host:                    m.cfg.Host,
		Port:                    m.cfg.Port,
		ReadTimeout:             m.cfg.ReadTimeout,
		WriteTimeout:            m.cfg.WriteTimeout,
		IdleTimeout:             m.cfg.IdleTimeout,
		GracefulShutdownTimeout: m.cfg.GracefulShutdownTimeout,
	}
}

// GetAuthConfig returns the admin API authentication configuration.
func (m *Manager) GetAuthConfig() types.AuthConfig {
	return types.AuthConfig{Key: m.cfg.AuthKey}
}

// GetCORSConfig returns the CORS configuration.
func (m *Manager) GetCORSConfig() types.CORSConfig {
	return types.CORSConfig{
		Enabled:          m.cfg.CORSEnabled,
		AllowedOrigins:   m.cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: m.cfg.CORSAllowCredentials,
	}
}

// GetLogConfig returns the logging configuration.
func (m *Manager) GetLogConfig() types.LogConfig {
	return types.LogConfig{
		Level:      m.cfg.LogLevel,
		Format:     m.cfg.LogFormat,
		EnableFile: m.cfg.LogEnableFile,
		FilePath:   m.cfg.LogFilePath,
	}
}

// GetDatabaseConfig returns the database configuration.
func (m *Manager) GetDatabaseConfig() types.DatabaseConfig {
	return types.DatabaseConfig{DSN: m.cfg.DatabaseDSN}
}

// DisplayServerConfig logs a summary of the effective configuration.
func (m *Manager) DisplayServerConfig() {
	serverConfig := m.GetEffectiveServerConfig()
	logrus.Info("Configuration loaded:")
	logrus.Infof("  Listen: %s:%d", serverConfig.Host, serverConfig.Port)
	logrus.Infof("  Database: %s", m.cfg.DatabaseDSN)
	logrus.Infof("  Log level: %s", m.cfg.LogLevel)
	if m.cfg.AuthKey == "" {
		logrus.Warn("  AUTH_KEY is empty; the admin API is unprotected")
	} else {
		logrus.Infof("  Auth key: %s", utils.MaskSecret(m.cfg.AuthKey))
	}
}

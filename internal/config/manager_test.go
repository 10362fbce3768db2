package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManagerDefaults(t *testing.T) {
	manager, err := NewManager()
	require.NoError(t, err)

	serverConfig := manager.GetEffectiveServerConfig()
	assert.Equal(t, "0.0.0.0", serverConfig.Host)
	assert.Equal(t, 3001, serverConfig.Port)
	assert.Equal(t, 10, serverConfig.GracefulShutdownTimeout)

	assert.Equal(t, "./data/campwatch.db", manager.GetDatabaseConfig().DSN)
	assert.Equal(t, "info", manager.GetLogConfig().Level)
	assert.False(t, manager.GetCORSConfig().Enabled)
}

func TestNewManagerReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("AUTH_KEY", "secret-admin-key")
	t.Setenv("ENABLE_CORS", "true")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")

	manager, err := NewManager()
	require.NoError(t, err)

	assert.Equal(t, 8080, manager.GetEffectiveServerConfig().Port)
	assert.Equal(t, "secret-admin-key", manager.GetAuthConfig().Key)

	corsConfig := manager.GetCORSConfig()
	assert.True(t, corsConfig.Enabled)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, corsConfig.AllowedOrigins)
}

func TestNewManagerRejectsInvalidPort(t *testing.T) {
	t.Setenv("PORT", "99999")

	_, err := NewManager()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid port")
}

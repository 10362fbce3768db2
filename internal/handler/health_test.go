package handler

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func TestHealth_Success(t *testing.T) {
	t.Parallel()

	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer mockDB.Close()

	// First ping: GORM pings during gorm.Open initialization.
	// Second ping: Health() verifies database connectivity.
	mock.ExpectPing()
	mock.ExpectPing()

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      mockDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	server := &Server{DB: gormDB}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)
	c.Set("serverStartTime", time.Now().Add(-5*time.Minute))

	server.Health(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

	assert.Equal(t, "healthy", response["status"])
	assert.Equal(t, "ok", response["database"])
	assert.Contains(t, response, "timestamp")
	assert.Contains(t, response, "uptime")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHealth_DatabaseUnavailable(t *testing.T) {
	t.Parallel()

	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectPing()
	mock.ExpectPing().WillReturnError(sql.ErrConnDone)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      mockDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	server := &Server{DB: gormDB}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)
	c.Set("serverStartTime", time.Now().Add(-5*time.Minute))

	server.Health(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var response map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

	assert.Equal(t, "unhealthy", response["status"])
	assert.Equal(t, "unavailable", response["database"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

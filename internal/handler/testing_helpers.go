package handler

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"campwatch/internal/config"
	"campwatch/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB creates an in-memory SQLite database for testing (pure Go, no CGO)
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.SystemSetting{},
		&models.User{},
		&models.Contact{},
		&models.Alert{},
		&models.NotificationLog{},
	)
	require.NoError(t, err)

	return db
}

// setupTestServer creates a test server with minimal dependencies
func setupTestServer(t *testing.T) *Server {
	t.Helper()

	db := setupTestDB(t)

	settingsManager := config.NewSystemSettingsManager()
	require.NoError(t, settingsManager.Initialize(db))

	return &Server{
		DB:              db,
		SettingsManager: settingsManager,
	}
}

// performRequest runs an HTTP request against a single handler.
func performRequest(t *testing.T, handlerFunc gin.HandlerFunc, method, target string, body any, params gin.Params) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = params

	handlerFunc(c)
	return w
}

// decodeData unmarshals the data field of a success envelope into out.
func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()

	var envelope struct {
		Code int             `json:"code"`
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, 0, envelope.Code)
	if out != nil {
		require.NoError(t, json.Unmarshal(envelope.Data, out))
	}
}

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(models.DateLayout, value)
	require.NoError(t, err)
	return parsed
}

func seedUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	user := models.User{Username: "camper"}
	require.NoError(t, user.SetPassword("secret"))
	require.NoError(t, db.Create(&user).Error)
	return &user
}

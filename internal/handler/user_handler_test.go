package handler

import (
	"fmt"
	"net/http"
	"testing"

	"campwatch/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUserHashesPassword(t *testing.T) {
	s := setupTestServer(t)

	w := performRequest(t, s.CreateUser, http.MethodPost, "/api/users", map[string]any{
		"username": "camper",
		"password": "hunter2",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stored models.User
	require.NoError(t, s.DB.Where("username = ?", "camper").First(&stored).Error)
	assert.NotEqual(t, "hunter2", stored.PasswordHash)
	assert.True(t, stored.CheckPassword("hunter2"))
	assert.False(t, stored.CheckPassword("wrong"))
}

func TestCreateUserRejectsDuplicateUsername(t *testing.T) {
	s := setupTestServer(t)
	seedUser(t, s.DB)

	w := performRequest(t, s.CreateUser, http.MethodPost, "/api/users", map[string]any{
		"username": "camper",
		"password": "hunter2",
	}, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestDeleteUserCascades(t *testing.T) {
	s := setupTestServer(t)
	user := seedUser(t, s.DB)

	require.NoError(t, s.DB.Create(&models.Contact{
		UserID:      user.ID,
		ChannelType: models.ChannelEmail,
		Value:       "camper@example.com",
	}).Error)
	require.NoError(t, s.DB.Create(&models.Alert{
		UserID:       user.ID,
		CampgroundID: 777,
		MapID:        888,
		StartDate:    mustDate(t, "2025-07-01"),
		EndDate:      mustDate(t, "2025-07-10"),
		MinNights:    1,
		Status:       models.AlertStatusActive,
	}).Error)

	w := performRequest(t, s.DeleteUser, http.MethodDelete, "/api/users/1", nil,
		gin.Params{{Key: "id", Value: fmt.Sprint(user.ID)}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var contacts, alerts int64
	require.NoError(t, s.DB.Model(&models.Contact{}).Count(&contacts).Error)
	require.NoError(t, s.DB.Model(&models.Alert{}).Count(&alerts).Error)
	assert.Zero(t, contacts)
	assert.Zero(t, alerts)
}

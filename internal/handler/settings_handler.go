package handler

import (
	app_errors "campwatch/internal/errors"
	"campwatch/internal/models"
	"campwatch/internal/response"
	"campwatch/internal/utils"

	"github.com/gin-gonic/gin"
)

// Settings keys whose values are masked in API responses.
var secretSettingKeys = map[string]bool{
	"twilio_auth_token": true,
	"sendgrid_api_key":  true,
	"email_password":    true,
}

// GetSettings handles the GET /api/settings request.
// It retrieves all system settings, groups them by category, and returns them.
func (s *Server) GetSettings(c *gin.Context) {
	currentSettings := s.SettingsManager.GetSettings()
	settingsInfo := utils.GenerateSettingsMetadata(&currentSettings)

	for i := range settingsInfo {
		if secretSettingKeys[settingsInfo[i].Key] {
			if value, ok := settingsInfo[i].Value.(string); ok {
				settingsInfo[i].Value = utils.MaskSecret(value)
			}
		}
	}

	// Group settings by category while preserving order
	categorized := make(map[string][]models.SystemSettingInfo)
	var categoryOrder []string
	for _, info := range settingsInfo {
		if _, exists := categorized[info.Category]; !exists {
			categoryOrder = append(categoryOrder, info.Category)
		}
		categorized[info.Category] = append(categorized[info.Category], info)
	}

	var responseData []models.CategorizedSettings
	for _, categoryName := range categoryOrder {
		responseData = append(responseData, models.CategorizedSettings{
			CategoryName: categoryName,
			Settings:     categorized[categoryName],
		})
	}

	response.Success(c, responseData)
}

// UpdateSettings handles the PUT /api/settings request.
func (s *Server) UpdateSettings(c *gin.Context) {
	var settingsMap map[string]any
	if err := c.ShouldBindJSON(&settingsMap); err != nil {
		response.Error(c, app_errors.NewAPIError(app_errors.ErrInvalidJSON, err.Error()))
		return
	}

	if len(settingsMap) == 0 {
		response.Success(c, nil)
		return
	}

	if err := s.SettingsManager.UpdateSettings(settingsMap); err != nil {
		response.Error(c, app_errors.NewAPIError(app_errors.ErrValidation, err.Error()))
		return
	}

	response.Success(c, nil)
}

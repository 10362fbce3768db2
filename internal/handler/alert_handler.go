package handler

import (
	"encoding/json"
	"strconv"
	"time"

	app_errors "campwatch/internal/errors"
	"campwatch/internal/models"
	"campwatch/internal/response"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

// AlertRequest is the create/update payload for an alert.
type AlertRequest struct {
	UserID       uint     `json:"user_id" binding:"required"`
	CampgroundID int64    `json:"campground_id" binding:"required"`
	MapID        int64    `json:"map_id" binding:"required"`
	MapLabel     string   `json:"map_label"`
	StartDate    string   `json:"start_date" binding:"required"`
	EndDate      string   `json:"end_date" binding:"required"`
	MinNights    int      `json:"min_nights"`
	CampsiteIDs  []string `json:"campsite_ids"`
}

// ListAlerts handles GET /api/alerts, optionally filtered by user_id.
func (s *Server) ListAlerts(c *gin.Context) {
	query := s.DB.Order("id asc")
	if userID := c.Query("user_id"); userID != "" {
		id, err := strconv.ParseUint(userID, 10, 32)
		if err != nil {
			response.Error(c, app_errors.NewAPIError(app_errors.ErrBadRequest, "invalid user_id"))
			return
		}
		query = query.Where("user_id = ?", id)
	}

	var alerts []models.Alert
	if err := query.Find(&alerts).Error; err != nil {
		response.Error(c, app_errors.ParseDBError(err))
		return
	}
	response.Success(c, alerts)
}

// GetAlert handles GET /api/alerts/:id.
func (s *Server) GetAlert(c *gin.Context) {
	alert, ok := s.findAlert(c)
	if !ok {
		return
	}
	response.Success(c, alert)
}

// CreateAlert handles POST /api/alerts.
func (s *Server) CreateAlert(c *gin.Context) {
	var req AlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, app_errors.NewAPIError(app_errors.ErrInvalidJSON, err.Error()))
		return
	}

	alert, apiErr := s.alertFromRequest(&req)
	if apiErr != nil {
		response.Error(c, apiErr)
		return
	}

	var owner models.User
	if err := s.DB.First(&owner, req.UserID).Error; err != nil {
		response.Error(c, app_errors.NewNotFoundError("user not found"))
		return
	}

	if err := s.DB.Create(alert).Error; err != nil {
		response.Error(c, app_errors.ParseDBError(err))
		return
	}
	response.Success(c, alert)
}

// UpdateAlert handles PUT /api/alerts/:id. Changing the criteria resets the
// stored scan state so the next scan is treated as the alert's first.
func (s *Server) UpdateAlert(c *gin.Context) {
	alert, ok := s.findAlert(c)
	if !ok {
		return
	}

	var req AlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, app_errors.NewAPIError(app_errors.ErrInvalidJSON, err.Error()))
		return
	}

	updated, apiErr := s.alertFromRequest(&req)
	if apiErr != nil {
		response.Error(c, apiErr)
		return
	}

	alert.CampgroundID = updated.CampgroundID
	alert.MapID = updated.MapID
	alert.MapLabel = updated.MapLabel
	alert.StartDate = updated.StartDate
	alert.EndDate = updated.EndDate
	alert.MinNights = updated.MinNights
	alert.CampsiteIDs = updated.CampsiteIDs
	alert.LastFound = nil
	alert.LastScannedAt = nil

	if err := s.DB.Save(alert).Error; err != nil {
		response.Error(c, app_errors.ParseDBError(err))
		return
	}
	response.Success(c, alert)
}

// DeleteAlert handles DELETE /api/alerts/:id.
func (s *Server) DeleteAlert(c *gin.Context) {
	alert, ok := s.findAlert(c)
	if !ok {
		return
	}
	if err := s.DB.Delete(alert).Error; err != nil {
		response.Error(c, app_errors.ParseDBError(err))
		return
	}
	response.Success(c, nil)
}

// ToggleAlertStatus handles PUT /api/alerts/:id/toggle-status, flipping the
// alert between active and paused.
func (s *Server) ToggleAlertStatus(c *gin.Context) {
	alert, ok := s.findAlert(c)
	if !ok {
		return
	}

	if alert.Status == models.AlertStatusActive {
		alert.Status = models.AlertStatusPaused
	} else {
		alert.Status = models.AlertStatusActive
	}

	if err := s.DB.Model(alert).Update("status", alert.Status).Error; err != nil {
		response.Error(c, app_errors.ParseDBError(err))
		return
	}
	response.Success(c, alert)
}

func (s *Server) findAlert(c *gin.Context) (*models.Alert, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.Error(c, app_errors.NewAPIError(app_errors.ErrBadRequest, "invalid alert ID"))
		return nil, false
	}

	var alert models.Alert
	if err := s.DB.First(&alert, id).Error; err != nil {
		response.Error(c, app_errors.ParseDBError(err))
		return nil, false
	}
	return &alert, true
}

func (s *Server) alertFromRequest(req *AlertRequest) (*models.Alert, *app_errors.APIError) {
	startDate, err := time.Parse(models.DateLayout, req.StartDate)
	if err != nil {
		return nil, app_errors.NewValidationError("start_date must be YYYY-MM-DD")
	}
	endDate, err := time.Parse(models.DateLayout, req.EndDate)
	if err != nil {
		return nil, app_errors.NewValidationError("end_date must be YYYY-MM-DD")
	}

	minNights := req.MinNights
	if minNights == 0 {
		minNights = 1
	}

	alert := &models.Alert{
		UserID:       req.UserID,
		CampgroundID: req.CampgroundID,
		MapID:        req.MapID,
		MapLabel:     req.MapLabel,
		StartDate:    startDate,
		EndDate:      endDate,
		MinNights:    minNights,
		Status:       models.AlertStatusActive,
	}

	if len(req.CampsiteIDs) > 0 {
		encoded, err := datatypesJSON(req.CampsiteIDs)
		if err != nil {
			return nil, app_errors.NewValidationError("invalid campsite_ids")
		}
		alert.CampsiteIDs = encoded
	}

	if err := alert.Validate(); err != nil {
		return nil, app_errors.NewValidationError(err.Error())
	}
	return alert, nil
}

func datatypesJSON(v any) (datatypes.JSON, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

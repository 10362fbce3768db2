package handler

import (
	"strconv"

	app_errors "campwatch/internal/errors"
	"campwatch/internal/models"
	"campwatch/internal/response"

	"github.com/gin-gonic/gin"
)

// GetLogs handles GET /api/logs, a paginated view of the notification audit
// trail, newest first.
func (s *Server) GetLogs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))
	if pageSize < 1 || pageSize > 500 {
		pageSize = 50
	}

	query := s.DB.Model(&models.NotificationLog{})
	if alertID := c.Query("alert_id"); alertID != "" {
		id, err := strconv.ParseUint(alertID, 10, 32)
		if err != nil {
			response.Error(c, app_errors.NewAPIError(app_errors.ErrBadRequest, "invalid alert_id"))
			return
		}
		query = query.Where("alert_id = ?", id)
	}
	if success := c.Query("is_success"); success != "" {
		query = query.Where("is_success = ?", success == "true")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		response.Error(c, app_errors.ParseDBError(err))
		return
	}

	var logs []models.NotificationLog
	if err := query.Order("timestamp desc").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&logs).Error; err != nil {
		response.Error(c, app_errors.ParseDBError(err))
		return
	}

	response.Success(c, gin.H{
		"items":     logs,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

package handler

import (
	"strconv"
	"strings"

	app_errors "campwatch/internal/errors"
	"campwatch/internal/models"
	"campwatch/internal/response"

	"github.com/gin-gonic/gin"
)

// UserRequest is the create payload for a user.
type UserRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	IsAdmin  bool   `json:"is_admin"`
}

// ListUsers handles GET /api/users.
func (s *Server) ListUsers(c *gin.Context) {
	var users []models.User
	if err := s.DB.Order("id asc").Find(&users).Error; err != nil {
		response.Error(c, app_errors.ParseDBError(err))
		return
	}
	response.Success(c, users)
}

// CreateUser handles POST /api/users.
func (s *Server) CreateUser(c *gin.Context) {
	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, app_errors.NewAPIError(app_errors.ErrInvalidJSON, err.Error()))
		return
	}

	user := models.User{
		Username: strings.TrimSpace(req.Username),
		IsAdmin:  req.IsAdmin,
	}
	if user.Username == "" {
		response.Error(c, app_errors.NewValidationError("username must not be empty"))
		return
	}
	if err := user.SetPassword(req.Password); err != nil {
		response.Error(c, app_errors.NewAPIError(app_errors.ErrInternalServer, err.Error()))
		return
	}

	if err := s.DB.Create(&user).Error; err != nil {
		response.Error(c, app_errors.ParseDBError(err))
		return
	}
	response.Success(c, user)
}

// DeleteUser handles DELETE /api/users/:id. Contacts and alerts cascade.
func (s *Server) DeleteUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.Error(c, app_errors.NewAPIError(app_errors.ErrBadRequest, "invalid user ID"))
		return
	}

	var user models.User
	if err := s.DB.First(&user, id).Error; err != nil {
		response.Error(c, app_errors.ParseDBError(err))
		return
	}

	if err := s.DB.Select("Contacts", "Alerts").Delete(&user).Error; err != nil {
		response.Error(c, app_errors.ParseDBError(err))
		return
	}
	response.Success(c, nil)
}

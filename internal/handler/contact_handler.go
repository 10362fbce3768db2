package handler

import (
	"strconv"
	"strings"

	app_errors "campwatch/internal/errors"
	"campwatch/internal/models"
	"campwatch/internal/notify"
	"campwatch/internal/response"

	"github.com/gin-gonic/gin"
)

// ContactRequest is the create payload for a notification contact.
type ContactRequest struct {
	UserID      uint   `json:"user_id" binding:"required"`
	ChannelType string `json:"channel_type" binding:"required"`
	Value       string `json:"value" binding:"required"`
}

// VerifyCheckRequest carries the code submitted for phone verification.
type VerifyCheckRequest struct {
	Code string `json:"code" binding:"required"`
}

// ListContacts handles GET /api/contacts, optionally filtered by user_id.
func (s *Server) ListContacts(c *gin.Context) {
	query := s.DB.Order("id asc")
	if userID := c.Query("user_id"); userID != "" {
		id, err := strconv.ParseUint(userID, 10, 32)
		if err != nil {
			response.Error(c, app_errors.NewAPIError(app_errors.ErrBadRequest, "invalid user_id"))
			return
		}
		query = query.Where("user_id = ?", id)
	}

	var contacts []models.Contact
	if err := query.Find(&contacts).Error; err != nil {
		response.Error(c, app_errors.ParseDBError(err))
		return
	}
	response.Success(c, contacts)
}

// CreateContact handles POST /api/contacts. Phone numbers are normalized on
// the way in; email contacts skip verification entirely.
func (s *Server) CreateContact(c *gin.Context) {
	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, app_errors.NewAPIError(app_errors.ErrInvalidJSON, err.Error()))
		return
	}

	contact := models.Contact{
		UserID:      req.UserID,
		ChannelType: strings.ToLower(strings.TrimSpace(req.ChannelType)),
		Value:       strings.TrimSpace(req.Value),
	}

	switch contact.ChannelType {
	case models.ChannelSMS:
		contact.Value = notify.NormalizePhone(contact.Value)
	case models.ChannelEmail:
		if !strings.Contains(contact.Value, "@") {
			response.Error(c, app_errors.NewValidationError("invalid email address"))
			return
		}
		contact.Verified = true
	default:
		response.Error(c, app_errors.NewValidationError("channel_type must be sms or email"))
		return
	}

	var owner models.User
	if err := s.DB.First(&owner, req.UserID).Error; err != nil {
		response.Error(c, app_errors.NewNotFoundError("user not found"))
		return
	}

	if err := s.DB.Create(&contact).Error; err != nil {
		response.Error(c, app_errors.ParseDBError(err))
		return
	}
	response.Success(c, contact)
}

// DeleteContact handles DELETE /api/contacts/:id.
func (s *Server) DeleteContact(c *gin.Context) {
	contact, ok := s.findContact(c)
	if !ok {
		return
	}
	if err := s.DB.Delete(contact).Error; err != nil {
		response.Error(c, app_errors.ParseDBError(err))
		return
	}
	response.Success(c, nil)
}

// StartContactVerification handles POST /api/contacts/:id/verify. It asks the
// SMS gateway to text a verification code to the contact's number.
func (s *Server) StartContactVerification(c *gin.Context) {
	contact, ok := s.findContact(c)
	if !ok {
		return
	}
	if contact.ChannelType != models.ChannelSMS {
		response.Error(c, app_errors.NewValidationError("only sms contacts require verification"))
		return
	}

	status, err := s.TwilioClient.StartVerification(c.Request.Context(), contact.Value)
	if err != nil {
		response.Error(c, app_errors.NewAPIError(app_errors.ErrBadGateway, err.Error()))
		return
	}
	response.Success(c, gin.H{"status": status})
}

// CheckContactVerification handles POST /api/contacts/:id/verify/check. An
// approved code marks the contact verified and eligible for SMS dispatch.
func (s *Server) CheckContactVerification(c *gin.Context) {
	contact, ok := s.findContact(c)
	if !ok {
		return
	}

	var req VerifyCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, app_errors.NewAPIError(app_errors.ErrInvalidJSON, err.Error()))
		return
	}

	approved, err := s.TwilioClient.CheckVerification(c.Request.Context(), contact.Value, req.Code)
	if err != nil {
		response.Error(c, app_errors.NewAPIError(app_errors.ErrBadGateway, err.Error()))
		return
	}
	if !approved {
		response.Error(c, app_errors.NewValidationError("verification code rejected"))
		return
	}

	if err := s.DB.Model(contact).Update("verified", true).Error; err != nil {
		response.Error(c, app_errors.ParseDBError(err))
		return
	}
	contact.Verified = true
	response.Success(c, contact)
}

func (s *Server) findContact(c *gin.Context) (*models.Contact, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.Error(c, app_errors.NewAPIError(app_errors.ErrBadRequest, "invalid contact ID"))
		return nil, false
	}

	var contact models.Contact
	if err := s.DB.First(&contact, id).Error; err != nil {
		response.Error(c, app_errors.ParseDBError(err))
		return nil, false
	}
	return &contact, true
}

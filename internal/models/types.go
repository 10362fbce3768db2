package models

import (
	"fmt"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
)

// Alert status constants
const (
	AlertStatusActive = "active"
	AlertStatusPaused = "paused"
)

// Contact channel constants
const (
	ChannelSMS   = "sms"
	ChannelEmail = "email"
)

// SystemSetting corresponds to the system_settings table.
type SystemSetting struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SettingKey   string    `gorm:"type:varchar(255);not null;unique" json:"setting_key"`
	SettingValue string    `gorm:"type:text;not null" json:"setting_value"`
	Description  string    `gorm:"type:varchar(512)" json:"description"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// User corresponds to the users table. Authentication flows live outside this
// service; only the password hash helpers are provided here.
type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"type:varchar(100);not null;unique" json:"username"`
	PasswordHash string    `gorm:"type:varchar(200)" json:"-"`
	IsAdmin      bool      `gorm:"default:false" json:"is_admin"`
	Contacts     []Contact `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"contacts,omitempty"`
	Alerts       []Alert   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"alerts,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SetPassword hashes and stores the given password.
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword reports whether the given password matches the stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// Contact corresponds to the contacts table. SMSCount is mutated only by the
// dispatcher, and only after a confirmed send.
type Contact struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	ChannelType string    `gorm:"type:varchar(20);not null" json:"channel_type"`
	Value       string    `gorm:"type:varchar(120);not null" json:"value"`
	Verified    bool      `gorm:"default:false" json:"verified"`
	SMSCount    int       `gorm:"not null;default:0" json:"sms_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Alert corresponds to the alerts table. Scan fields (LastScannedAt, LastFound)
// are mutated only by the scanner; criteria fields belong to the owning user.
type Alert struct {
	ID           uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       uint           `gorm:"not null;index" json:"user_id"`
	CampgroundID int64          `gorm:"not null" json:"campground_id"`
	MapID        int64          `gorm:"not null" json:"map_id"`
	MapLabel     string         `gorm:"type:varchar(100)" json:"map_label"`
	StartDate    time.Time      `gorm:"type:date;not null" json:"start_date"`
	EndDate      time.Time      `gorm:"type:date;not null" json:"end_date"`
	MinNights    int            `gorm:"not null;default:1" json:"min_nights"`
	CampsiteIDs  datatypes.JSON `gorm:"type:json" json:"campsite_ids"`
	Status       string         `gorm:"type:varchar(20);default:'active';index" json:"status"`
	LastScannedAt *time.Time    `json:"last_scanned_at"`
	LastFound    datatypes.JSON `gorm:"type:json" json:"last_found"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Validate checks the alert's criteria invariants.
func (a *Alert) Validate() error {
	if a.EndDate.Before(a.StartDate) {
		return fmt.Errorf("start_date must not be after end_date")
	}
	if a.MinNights < 1 {
		return fmt.Errorf("min_nights must be at least 1")
	}
	return nil
}

// SiteFilter returns the set of site IDs this alert is restricted to.
// An empty map means all sites. Malformed entries are ignored.
func (a *Alert) SiteFilter() map[string]struct{} {
	filter := make(map[string]struct{})
	if len(a.CampsiteIDs) == 0 {
		return filter
	}
	for _, id := range gjson.ParseBytes([]byte(a.CampsiteIDs)).Array() {
		if s := id.String(); s != "" {
			filter[s] = struct{}{}
		}
	}
	return filter
}

// NotificationLog corresponds to the notification_logs table, an audit trail of
// per-channel dispatch attempts.
type NotificationLog struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Timestamp    time.Time `gorm:"not null;index" json:"timestamp"`
	AlertID      uint      `gorm:"not null;index" json:"alert_id"`
	ChannelType  string    `gorm:"type:varchar(20);not null" json:"channel_type"`
	Destination  string    `gorm:"type:varchar(120);not null" json:"destination"`
	Message      string    `gorm:"type:text" json:"message"`
	IsSuccess    bool      `gorm:"not null" json:"is_success"`
	ErrorMessage string    `gorm:"type:text" json:"error_message"`
}

// SystemSettingInfo represents detailed system configuration information (for API responses).
type SystemSettingInfo struct {
	Key          string `json:"key"`
	Name         string `json:"name"`
	Value        any    `json:"value"`
	Type         string `json:"type"` // "int", "bool", "string"
	DefaultValue any    `json:"default_value"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	MinValue     *int   `json:"min_value,omitempty"`
	Required     bool   `json:"required"`
}

// CategorizedSettings is a list of settings grouped by category.
type CategorizedSettings struct {
	CategoryName string              `json:"category_name"`
	Settings     []SystemSettingInfo `json:"settings"`
}

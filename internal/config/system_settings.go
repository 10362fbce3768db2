package config

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"campwatch/internal/models"
	"campwatch/internal/types"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SystemSettingsManager caches the typed view of the system_settings table.
// Reads are served from memory; writes go through the database and refresh the cache.
type SystemSettingsManager struct {
	db       *gorm.DB
	mu       sync.RWMutex
	settings types.SystemSettings
}

// NewSystemSettingsManager creates a manager seeded with default settings.
func NewSystemSettingsManager() *SystemSettingsManager {
	return &SystemSettingsManager{
		settings: DefaultSystemSettings(),
	}
}

// DefaultSystemSettings builds a SystemSettings populated from struct default tags.
func DefaultSystemSettings() types.SystemSettings {
	var settings types.SystemSettings
	v := reflect.ValueOf(&settings).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		defaultTag := t.Field(i).Tag.Get("default")
		if defaultTag == "" {
			continue
		}
		setFieldFromString(v.Field(i), defaultTag)
	}
	return settings
}

// Initialize binds the manager to the database, seeds missing rows with
// defaults, and loads the current values into the cache.
func (sm *SystemSettingsManager) Initialize(db *gorm.DB) error {
	sm.db = db
	if err := sm.ensureSettingsInitialized(); err != nil {
		return err
	}
	return sm.ReloadSettings()
}

// GetSettings returns a copy of the cached settings.
func (sm *SystemSettingsManager) GetSettings() types.SystemSettings {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.settings
}

// ReloadSettings re-reads all rows from the database into the cache.
func (sm *SystemSettingsManager) ReloadSettings() error {
	if sm.db == nil {
		return fmt.Errorf("settings manager is not initialized")
	}

	var rows []models.SystemSetting
	if err := sm.db.Find(&rows).Error; err != nil {
		return fmt.Errorf("failed to load system settings: %w", err)
	}

	settings := DefaultSystemSettings()
	v := reflect.ValueOf(&settings).Elem()
	fieldsByKey := settingFieldsByKey(v.Type())

	for _, row := range rows {
		idx, ok := fieldsByKey[row.SettingKey]
		if !ok {
			logrus.WithField("setting_key", row.SettingKey).Debug("Ignoring unknown system setting row")
			continue
		}
		if !setFieldFromString(v.Field(idx), row.SettingValue) {
			logrus.WithFields(logrus.Fields{
				"setting_key":   row.SettingKey,
				"setting_value": row.SettingValue,
			}).Warn("Invalid system setting value, keeping default")
		}
	}

	sm.mu.Lock()
	sm.settings = settings
	sm.mu.Unlock()
	return nil
}

// UpdateSettings validates and persists a partial settings update, then
// refreshes the cache.
func (sm *SystemSettingsManager) UpdateSettings(settingsMap map[string]any) error {
	if sm.db == nil {
		return fmt.Errorf("settings manager is not initialized")
	}
	if err := sm.ValidateSettings(settingsMap); err != nil {
		return err
	}

	err := sm.db.Transaction(func(tx *gorm.DB) error {
		for key, value := range settingsMap {
			stored := settingValueToString(value)
			result := tx.Model(&models.SystemSetting{}).
				Where("setting_key = ?", key).
				Update("setting_value", stored)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				if err := tx.Create(&models.SystemSetting{
					SettingKey:   key,
					SettingValue: stored,
				}).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to persist system settings: %w", err)
	}

	return sm.ReloadSettings()
}

// ValidateSettings checks keys, types, and bounds of a partial settings update.
func (sm *SystemSettingsManager) ValidateSettings(settingsMap map[string]any) error {
	t := reflect.TypeOf(types.SystemSettings{})
	fieldsByKey := settingFieldsByKey(t)

	for key, value := range settingsMap {
		idx, ok := fieldsByKey[key]
		if !ok {
			return fmt.Errorf("invalid setting key: %s", key)
		}
		field := t.Field(idx)

		switch field.Type.Kind() {
		case reflect.Int:
			num, ok := toInt(value)
			if !ok {
				return fmt.Errorf("setting %s: expected a number", key)
			}
			if minRule, found := minFromValidateTag(field.Tag.Get("validate")); found && num < minRule {
				return fmt.Errorf("setting %s: value %d is below minimum value %d", key, num, minRule)
			}
		case reflect.Bool:
			if _, ok := value.(bool); !ok {
				return fmt.Errorf("setting %s: expected a boolean", key)
			}
		case reflect.String:
			s, ok := value.(string)
			if !ok {
				return fmt.Errorf("setting %s: expected a string", key)
			}
			if strings.Contains(field.Tag.Get("validate"), "required") && strings.TrimSpace(s) == "" {
				return fmt.Errorf("setting %s: value is required", key)
			}
		}
	}
	return nil
}

// ensureSettingsInitialized inserts a row for every setting missing from the table.
func (sm *SystemSettingsManager) ensureSettingsInitialized() error {
	var existing []models.SystemSetting
	if err := sm.db.Select("setting_key").Find(&existing).Error; err != nil {
		return fmt.Errorf("failed to read existing system settings: %w", err)
	}
	existingKeys := make(map[string]struct{}, len(existing))
	for _, row := range existing {
		existingKeys[row.SettingKey] = struct{}{}
	}

	defaults := DefaultSystemSettings()
	v := reflect.ValueOf(&defaults).Elem()
	t := v.Type()

	var toCreate []models.SystemSetting
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		key := settingKey(field)
		if key == "" {
			continue
		}
		if _, ok := existingKeys[key]; ok {
			continue
		}
		toCreate = append(toCreate, models.SystemSetting{
			SettingKey:   key,
			SettingValue: settingValueToString(v.Field(i).Interface()),
			Description:  field.Tag.Get("desc"),
		})
	}

	if len(toCreate) == 0 {
		return nil
	}
	if err := sm.db.Create(&toCreate).Error; err != nil {
		return fmt.Errorf("failed to seed default system settings: %w", err)
	}
	logrus.Infof("Seeded %d default system setting(s)", len(toCreate))
	return nil
}

// toInt coerces a JSON-decoded numeric value. encoding/json delivers numbers
// as float64; tests and internal callers may pass plain ints.
func toInt(value any) (int, bool) {
	switch v := value.(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}

// minFromValidateTag extracts the min=N rule from a validate tag.
func minFromValidateTag(tag string) (int, bool) {
	for _, rule := range strings.Split(tag, ",") {
		if raw, ok := strings.CutPrefix(rule, "min="); ok {
			if n, err := strconv.Atoi(raw); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

func settingKey(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" || tag == "-" {
		return ""
	}
	key, _, _ := strings.Cut(tag, ",")
	return key
}

func settingFieldsByKey(t reflect.Type) map[string]int {
	fields := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if key := settingKey(t.Field(i)); key != "" {
			fields[key] = i
		}
	}
	return fields
}

func setFieldFromString(field reflect.Value, raw string) bool {
	switch field.Kind() {
	case reflect.Int:
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return false
		}
		field.SetInt(int64(n))
	case reflect.Bool:
		field.SetBool(strings.TrimSpace(raw) == "true")
	case reflect.String:
		field.SetString(raw)
	default:
		return false
	}
	return true
}

func settingValueToString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case float64:
		// JSON numbers arrive as float64; settings are integral
		return strconv.Itoa(int(v))
	default:
		return fmt.Sprint(v)
	}
}

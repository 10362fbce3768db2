package utils

import (
	"reflect"
	"strconv"
	"strings"

	"campwatch/internal/models"
	"campwatch/internal/types"
)

// GenerateSettingsMetadata builds API metadata for every system setting by
// reflecting over the SystemSettings struct tags.
func GenerateSettingsMetadata(settings *types.SystemSettings) []models.SystemSettingInfo {
	v := reflect.ValueOf(settings).Elem()
	t := v.Type()

	infos := make([]models.SystemSettingInfo, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		key := jsonKey(field)
		if key == "" {
			continue
		}

		info := models.SystemSettingInfo{
			Key:         key,
			Name:        field.Tag.Get("name"),
			Value:       v.Field(i).Interface(),
			Description: field.Tag.Get("desc"),
			Category:    field.Tag.Get("category"),
		}

		defaultTag := field.Tag.Get("default")
		switch field.Type.Kind() {
		case reflect.Int:
			info.Type = "int"
			if n, err := strconv.Atoi(defaultTag); err == nil {
				info.DefaultValue = n
			} else {
				info.DefaultValue = 0
			}
		case reflect.Bool:
			info.Type = "bool"
			info.DefaultValue = defaultTag == "true"
		default:
			info.Type = "string"
			info.DefaultValue = defaultTag
		}

		validateTag := field.Tag.Get("validate")
		info.Required = strings.Contains(validateTag, "required")
		for _, rule := range strings.Split(validateTag, ",") {
			if after, ok := strings.CutPrefix(rule, "min="); ok {
				if n, err := strconv.Atoi(after); err == nil {
					minValue := n
					info.MinValue = &minValue
				}
			}
		}

		infos = append(infos, info)
	}
	return infos
}

func jsonKey(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" || tag == "-" {
		return ""
	}
	key, _, _ := strings.Cut(tag, ",")
	return key
}

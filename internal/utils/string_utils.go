package utils

import (
	"os"
	"strings"
)

// MaskSecret masks a credential for safe logging and API responses.
// Example: "AC1234567890abcdef" -> "AC12****cdef"
func MaskSecret(secret string) string {
	length := len(secret)
	if length == 0 {
		return ""
	}
	if length <= 8 {
		return "****"
	}
	var b strings.Builder
	b.Grow(12)
	b.WriteString(secret[:4])
	b.WriteString("****")
	b.WriteString(secret[length-4:])
	return b.String()
}

// TruncateString shortens a string to a maximum length.
func TruncateString(s string, maxLength int) string {
	if len(s) > maxLength {
		return s[:maxLength]
	}
	return s
}

// SplitAndTrim splits a string by a separator, trimming whitespace and dropping empties.
func SplitAndTrim(s string, sep string) []string {
	if s == "" {
		return []string{}
	}

	parts := strings.Split(s, sep)
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// GetEnvOrDefault returns the value of an environment variable or a default.
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

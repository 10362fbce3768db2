package notify

import (
	"context"
	"testing"

	"campwatch/internal/config"
	"campwatch/internal/httpclient"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"bare ten digit number", "2505551234", "+12505551234"},
		{"already E.164", "+12505551234", "+12505551234"},
		{"surrounding whitespace", "  2505551234 ", "+12505551234"},
		{"international number passes through", "+442071234567", "+442071234567"},
		{"short number passes through", "555123", "555123"},
		{"ten chars with letters passes through", "25055512ab", "25055512ab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizePhone(tt.input))
		})
	}
}

func TestTwilioSendRequiresConfiguration(t *testing.T) {
	client := NewTwilioClient(config.NewSystemSettingsManager(), httpclient.NewHTTPClientManager())

	err := client.Send(context.Background(), "+12505551234", "hello")
	assert.ErrorContains(t, err, "not configured")

	_, err = client.StartVerification(context.Background(), "+12505551234")
	assert.ErrorContains(t, err, "not configured")

	_, err = client.CheckVerification(context.Background(), "+12505551234", "123456")
	assert.ErrorContains(t, err, "not configured")
}

// Package notify implements notification formatting and multi-channel delivery.
package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"campwatch/internal/config"
	"campwatch/internal/httpclient"
	"campwatch/internal/utils"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const (
	twilioAPIBase    = "https://api.twilio.com/2010-04-01"
	twilioVerifyBase = "https://verify.twilio.com/v2"
)

// SMSSender sends a text message to a destination phone number.
type SMSSender interface {
	Send(ctx context.Context, to, body string) error
}

// TwilioClient is the SMS gateway. Credentials come from system settings so
// they can be rotated without a restart.
type TwilioClient struct {
	settingsManager *config.SystemSettingsManager
	clientManager   *httpclient.HTTPClientManager
}

// NewTwilioClient creates a Twilio SMS gateway client.
func NewTwilioClient(settingsManager *config.SystemSettingsManager, clientManager *httpclient.HTTPClientManager) *TwilioClient {
	return &TwilioClient{
		settingsManager: settingsManager,
		clientManager:   clientManager,
	}
}

// NormalizePhone upgrades a bare North American 10-digit number to E.164 form.
// Anything else is passed through after trimming.
func NormalizePhone(phone string) string {
	clean := strings.TrimSpace(phone)
	if len(clean) == 10 && isAllDigits(clean) {
		return "+1" + clean
	}
	return clean
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Send delivers a text message, returning an error on any failure.
func (t *TwilioClient) Send(ctx context.Context, to, body string) error {
	settings := t.settingsManager.GetSettings()
	sid := strings.TrimSpace(settings.TwilioAccountSID)
	token := strings.TrimSpace(settings.TwilioAuthToken)
	from := strings.TrimSpace(settings.TwilioFromNumber)
	if sid == "" || token == "" || from == "" {
		return fmt.Errorf("twilio is not configured")
	}

	form := url.Values{}
	form.Set("To", NormalizePhone(to))
	form.Set("From", from)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", twilioAPIBase, sid)
	_, err := t.postForm(ctx, endpoint, sid, token, form)
	return err
}

// StartVerification begins the Verify sub-protocol for a phone number and
// returns the verification status reported by the gateway.
func (t *TwilioClient) StartVerification(ctx context.Context, phone string) (string, error) {
	settings := t.settingsManager.GetSettings()
	sid := strings.TrimSpace(settings.TwilioAccountSID)
	token := strings.TrimSpace(settings.TwilioAuthToken)
	serviceSID := strings.TrimSpace(settings.TwilioVerifyServiceSID)
	if sid == "" || token == "" || serviceSID == "" {
		return "", fmt.Errorf("twilio verify is not configured")
	}

	form := url.Values{}
	form.Set("To", NormalizePhone(phone))
	form.Set("Channel", "sms")

	endpoint := fmt.Sprintf("%s/Services/%s/Verifications", twilioVerifyBase, serviceSID)
	body, err := t.postForm(ctx, endpoint, sid, token, form)
	if err != nil {
		return "", err
	}
	return gjson.GetBytes(body, "status").String(), nil
}

// CheckVerification submits a verification code and reports approval.
func (t *TwilioClient) CheckVerification(ctx context.Context, phone, code string) (bool, error) {
	settings := t.settingsManager.GetSettings()
	sid := strings.TrimSpace(settings.TwilioAccountSID)
	token := strings.TrimSpace(settings.TwilioAuthToken)
	serviceSID := strings.TrimSpace(settings.TwilioVerifyServiceSID)
	if sid == "" || token == "" || serviceSID == "" {
		return false, fmt.Errorf("twilio verify is not configured")
	}

	form := url.Values{}
	form.Set("To", NormalizePhone(phone))
	form.Set("Code", code)

	endpoint := fmt.Sprintf("%s/Services/%s/VerificationCheck", twilioVerifyBase, serviceSID)
	body, err := t.postForm(ctx, endpoint, sid, token, form)
	if err != nil {
		return false, err
	}
	return gjson.GetBytes(body, "status").String() == "approved", nil
}

func (t *TwilioClient) postForm(ctx context.Context, endpoint, sid, token string, form url.Values) ([]byte, error) {
	settings := t.settingsManager.GetSettings()
	timeout := time.Duration(settings.ScanTimeoutSeconds) * time.Second

	client := t.clientManager.GetClient(&httpclient.Config{
		ConnectTimeout:        10 * time.Second,
		RequestTimeout:        timeout,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   5,
		ResponseHeaderTimeout: timeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.SetBasicAuth(sid, token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("twilio request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, fmt.Errorf("failed to read twilio response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := gjson.GetBytes(body, "message").String()
		logrus.WithFields(logrus.Fields{
			"status":      resp.StatusCode,
			"account_sid": utils.MaskSecret(sid),
		}).Warn("Twilio API returned an error")
		return nil, fmt.Errorf("twilio status %d: %s", resp.StatusCode, utils.TruncateString(message, 200))
	}
	return body, nil
}

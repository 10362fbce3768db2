package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/smtp"
	"strings"
	"time"

	"campwatch/internal/config"
	"campwatch/internal/httpclient"
	"campwatch/internal/utils"
)

const sendgridSendURL = "https://api.sendgrid.com/v3/mail/send"

// EmailSender sends a plain-text email to a destination address.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// EmailClient delivers mail via the provider selected in system settings:
// the SendGrid HTTP API or direct SMTP.
type EmailClient struct {
	settingsManager *config.SystemSettingsManager
	clientManager   *httpclient.HTTPClientManager
}

// NewEmailClient creates an email delivery client.
func NewEmailClient(settingsManager *config.SystemSettingsManager, clientManager *httpclient.HTTPClientManager) *EmailClient {
	return &EmailClient{
		settingsManager: settingsManager,
		clientManager:   clientManager,
	}
}

// Send delivers one message, returning an error on any failure.
func (e *EmailClient) Send(ctx context.Context, to, subject, body string) error {
	settings := e.settingsManager.GetSettings()
	if settings.EmailProvider == "sendgrid" {
		return e.sendViaSendgrid(ctx, to, subject, body)
	}
	return e.sendViaSMTP(to, subject, body)
}

func (e *EmailClient) sendViaSendgrid(ctx context.Context, to, subject, body string) error {
	settings := e.settingsManager.GetSettings()
	apiKey := strings.TrimSpace(settings.SendgridAPIKey)
	from := strings.TrimSpace(settings.EmailFrom)
	if apiKey == "" || from == "" {
		return fmt.Errorf("sendgrid is not configured")
	}

	payload := map[string]any{
		"personalizations": []map[string]any{
			{"to": []map[string]string{{"email": to}}},
		},
		"from":    map[string]string{"email": from},
		"subject": subject,
		"content": []map[string]string{
			{"type": "text/plain", "value": body},
		},
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode mail payload: %w", err)
	}

	timeout := time.Duration(settings.ScanTimeoutSeconds) * time.Second
	client := e.clientManager.GetClient(&httpclient.Config{
		ConnectTimeout:        10 * time.Second,
		RequestTimeout:        timeout,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   5,
		ResponseHeaderTimeout: timeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sendgridSendURL, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("sendgrid request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("sendgrid status %d: %s", resp.StatusCode, utils.TruncateString(string(snippet), 200))
	}
	return nil
}

func (e *EmailClient) sendViaSMTP(to, subject, body string) error {
	settings := e.settingsManager.GetSettings()
	host := strings.TrimSpace(settings.EmailHost)
	user := strings.TrimSpace(settings.EmailUser)
	password := settings.EmailPassword
	if host == "" || settings.EmailPort == 0 || user == "" || password == "" {
		return fmt.Errorf("smtp is not configured")
	}

	from := strings.TrimSpace(settings.EmailFrom)
	if from == "" {
		from = user
	}

	var msg strings.Builder
	msg.WriteString("From: " + from + "\r\n")
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", host, settings.EmailPort)
	auth := smtp.PlainAuth("", user, password, host)
	if err := smtp.SendMail(addr, auth, from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	return nil
}

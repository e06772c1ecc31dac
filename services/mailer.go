// services/mailer.go
package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"rithm-backend/utils"
)

const sendGridSendURL = "https://api.sendgrid.com/v3/mail/send"

// Mailer sends transactional email through the SendGrid v3 REST API.
// When SENDGRID_API_KEY is unset the mailer runs disabled and every
// send becomes a logged no-op, which keeps local development working
// without credentials.
type Mailer struct {
	apiKey    string
	fromEmail string
	fromName  string
	baseURL   string
	siteURL   string
}

func NewMailerFromEnv() *Mailer {
	apiKey := os.Getenv("SENDGRID_API_KEY")
	if apiKey == "" {
		log.Println("⚠️  SENDGRID_API_KEY not set, email sending disabled")
	}

	fromEmail := os.Getenv("MAIL_FROM_EMAIL")
	if fromEmail == "" {
		fromEmail = "noreply@rithm.app"
	}
	fromName := os.Getenv("MAIL_FROM_NAME")
	if fromName == "" {
		fromName = "RITHM"
	}
	siteURL := os.Getenv("SITE_BASE_URL")
	if siteURL == "" {
		siteURL = "http://localhost:8000"
	}

	return &Mailer{
		apiKey:    apiKey,
		fromEmail: fromEmail,
		fromName:  fromName,
		baseURL:   sendGridSendURL,
		siteURL:   siteURL,
	}
}

func (m *Mailer) Enabled() bool {
	return m.apiKey != ""
}

type sgAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sgContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sgPersonalization struct {
	To      []sgAddress `json:"to"`
	Subject string      `json:"subject"`
}

type sgMailRequest struct {
	Personalizations []sgPersonalization `json:"personalizations"`
	From             sgAddress           `json:"from"`
	Content          []sgContent         `json:"content"`
}

// SendVerificationEmail mails the user their one-time verification link.
func (m *Mailer) SendVerificationEmail(toEmail, username, token string) error {
	if !m.Enabled() {
		log.Printf("⚠️  Email disabled, skipping verification mail for %s", toEmail)
		return nil
	}

	verifyURL := fmt.Sprintf("%s/accounts/verify?token=%s", m.siteURL, token)
	body := fmt.Sprintf(
		"Hi %s,\n\nWelcome to RITHM! Confirm your email address by opening the link below:\n\n%s\n\nThe link expires in 24 hours. If you did not create this account you can ignore this message.\n",
		username, verifyURL,
	)

	payload := sgMailRequest{
		Personalizations: []sgPersonalization{{
			To:      []sgAddress{{Email: toEmail, Name: username}},
			Subject: "Verify your RITHM account",
		}},
		From:    sgAddress{Email: m.fromEmail, Name: m.fromName},
		Content: []sgContent{{Type: "text/plain", Value: body}},
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal mail payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, m.baseURL, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := utils.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("sendgrid returned %d: %s", resp.StatusCode, string(detail))
	}
	return nil
}

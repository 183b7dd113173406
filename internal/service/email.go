package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/resend/resend-go/v2"
)

var ErrEmailNotConfigured = errors.New("email service not configured (missing RESEND_API_KEY)")

// EmailService sends transactional mail through Resend. In development it
// only logs, including OTP codes, so no provider is needed locally.
type EmailService struct {
	client    *resend.Client
	fromEmail string
	isDev     bool
	appURL    string
	appName   string
}

func NewEmailService(apiKey, fromEmail, appURL, appName string, isDev bool) *EmailService {
	var client *resend.Client
	if apiKey != "" && !isDev {
		client = resend.NewClient(apiKey)
	}

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		isDev:     isDev,
		appURL:    appURL,
		appName:   appName,
	}
}

func (s *EmailService) send(kind, to, subject, body string, devAttrs ...any) error {
	if s.isDev {
		attrs := append([]any{"type", kind, "to", to, "subject", subject}, devAttrs...)
		slog.Info("email sent (dev mode)", attrs...)
		return nil
	}

	if s.client == nil {
		return ErrEmailNotConfigured
	}

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("send %s email: %w", kind, err)
	}

	slog.Info("email sent", "type", kind, "to", to)
	return nil
}

func (s *EmailService) SendVerificationCode(email, code string, expiry time.Duration) error {
	subject, body := verificationCodeTemplate(code, expiry, s.appName)
	return s.send("email_verify", email, subject, body, "code", code)
}

func (s *EmailService) SendPasswordResetCode(email, code string, expiry time.Duration) error {
	resetURL := fmt.Sprintf("%s/reset-password?email=%s", s.appURL, url.QueryEscape(email))
	subject, body := passwordResetCodeTemplate(code, resetURL, expiry, s.appName)
	return s.send("password_reset", email, subject, body, "code", code)
}

func (s *EmailService) SendPasswordChangedEmail(email string) error {
	subject, body := passwordChangedTemplate(s.appName)
	return s.send("password_changed", email, subject, body)
}

func (s *EmailService) SendWelcomeEmail(email, name string) error {
	dashboardURL := s.appURL + "/dashboard"
	subject, body := welcomeEmailTemplate(name, dashboardURL, s.appName)
	return s.send("welcome", email, subject, body, "url", dashboardURL)
}

func (s *EmailService) SendFriendRequestEmail(email, fromUsername string) error {
	friendsURL := s.appURL + "/dashboard/friends"
	subject, body := friendRequestTemplate(fromUsername, friendsURL, s.appName)
	return s.send("friend_request", email, subject, body, "from", fromUsername)
}

func (s *EmailService) SendAccountDeletedEmail(email, name string) error {
	subject, body := accountDeletedEmailTemplate(name, s.appName)
	return s.send("account_deleted", email, subject, body)
}

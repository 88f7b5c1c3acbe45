// codetrack - Competitive Programming Profile Tracker
// Copyright 2026 P. Shanbhag (pshanbhag)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pshanbhag/codetrack

package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/pshanbhag/codetrack/internal/config"
	"github.com/pshanbhag/codetrack/internal/logging"
	"github.com/pshanbhag/codetrack/internal/models"
)

// EmailNotifier delivers inactivity reminders via SMTP.
type EmailNotifier struct {
	cfg         *config.NotifyConfig
	dialTimeout time.Duration
}

// NewEmailNotifier creates an SMTP-backed notifier from configuration.
func NewEmailNotifier(cfg *config.NotifyConfig) *EmailNotifier {
	return &EmailNotifier{
		cfg:         cfg,
		dialTimeout: 30 * time.Second,
	}
}

// SendInactivityReminder implements Notifier.
func (n *EmailNotifier) SendInactivityReminder(ctx context.Context, profile *models.Profile, inactiveDays int) error {
	if profile.Email == "" {
		return fmt.Errorf("profile %s has no email address", profile.ID)
	}

	msg := n.buildMessage(profile, inactiveDays)
	if err := n.sendSMTP(ctx, profile.Email, msg); err != nil {
		return fmt.Errorf("send reminder to %s: %w", profile.Email, err)
	}

	logging.Info().
		Str("profile_id", profile.ID).
		Str("handle", profile.Handle).
		Int("inactive_days", inactiveDays).
		Msg("Inactivity reminder sent")
	return nil
}

// buildMessage constructs the reminder email with headers.
func (n *EmailNotifier) buildMessage(profile *models.Profile, inactiveDays int) string {
	var msg strings.Builder

	msg.WriteString(fmt.Sprintf("From: codetrack <%s>\r\n", n.cfg.From))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", profile.Email))
	msg.WriteString(fmt.Sprintf("Subject: Time to get back to problem solving, %s!\r\n", profile.Name))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(fmt.Sprintf("Hi %s,\r\n\r\n", profile.Name))
	msg.WriteString(fmt.Sprintf(
		"We noticed you haven't submitted anything on Codeforces for %d days.\r\n", inactiveDays))
	msg.WriteString("Keeping a steady practice rhythm is the best way to improve.\r\n\r\n")
	msg.WriteString(fmt.Sprintf(
		"Your profile: https://codeforces.com/profile/%s\r\n\r\n", profile.Handle))
	msg.WriteString("Happy solving!\r\n")

	return msg.String()
}

func (n *EmailNotifier) sendSMTP(ctx context.Context, to, msg string) error {
	addr := fmt.Sprintf("%s:%d", n.cfg.SMTPHost, n.cfg.SMTPPort)

	dialer := &net.Dialer{Timeout: n.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer func() { _ = conn.Close() }()

	client, err := smtp.NewClient(conn, n.cfg.SMTPHost)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer func() { _ = client.Close() }()

	if n.cfg.UseTLS {
		tlsConfig := &tls.Config{
			ServerName: n.cfg.SMTPHost,
			MinVersion: tls.VersionTLS12,
		}
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	if n.cfg.Username != "" && n.cfg.Password != "" {
		auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.SMTPHost)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(n.cfg.From); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to start message: %w", err)
	}
	if _, err := writer.Write([]byte(msg)); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close message: %w", err)
	}

	return client.Quit()
}

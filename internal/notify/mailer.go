// Package notify delivers user-facing notification emails.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/avykov/authcore/internal/config"
)

// Mailer sends a single email message.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer delivers mail over plain SMTP with optional AUTH.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewSMTPMailer creates a mailer from SMTP configuration.
func NewSMTPMailer(cfg config.SMTP) *SMTPMailer {
	return &SMTPMailer{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
	}
}

// Send delivers the message. The context deadline is not plumbed into the
// SMTP dial; callers run Send inside a task with its own timeout.
func (m *SMTPMailer) Send(_ context.Context, to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", m.host, m.port)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	msg := strings.Join([]string{
		"From: " + m.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")

	if err := smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

// LogMailer writes messages to the log instead of delivering them. Used when
// no SMTP host is configured, typically in development.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, to, subject, body string) error {
	log.Info().
		Str("to", to).
		Str("subject", subject).
		Str("body", body).
		Msg("email delivery disabled, logging instead")
	return nil
}

// NewMailer picks the SMTP mailer when a host is configured, otherwise the
// log mailer.
func NewMailer(cfg config.SMTP) Mailer {
	if cfg.Host == "" {
		return LogMailer{}
	}
	return NewSMTPMailer(cfg)
}

// VerificationEmail builds the subject and body of the verification message.
// The link points at the frontend, which forwards the token to the API.
func VerificationEmail(clientURL, firstName, token string) (subject, body string) {
	link := strings.TrimRight(clientURL, "/") + "/verify-email?token=" + token

	subject = "Verify your email address"
	body = fmt.Sprintf(
		"Hi %s,\n\n"+
			"Thanks for signing up. Please verify your email address by opening the link below:\n\n"+
			"%s\n\n"+
			"The link expires in one hour. If you did not create an account, you can ignore this message.\n",
		firstName, link)
	return subject, body
}

package notify

import (
	"context"
	"strings"
	"testing"

	"github.com/avykov/authcore/internal/config"
)

func TestVerificationEmail(t *testing.T) {
	subject, body := VerificationEmail("http://localhost:3000", "Jane", "tok123")

	if subject == "" {
		t.Error("subject should not be empty")
	}
	if !strings.Contains(body, "Hi Jane,") {
		t.Errorf("body missing greeting: %q", body)
	}
	if !strings.Contains(body, "http://localhost:3000/verify-email?token=tok123") {
		t.Errorf("body missing verification link: %q", body)
	}
}

func TestVerificationEmail_TrimsTrailingSlash(t *testing.T) {
	_, body := VerificationEmail("http://localhost:3000/", "Jane", "tok123")

	if strings.Contains(body, "3000//verify-email") {
		t.Errorf("double slash in link: %q", body)
	}
}

func TestNewMailer(t *testing.T) {
	// No host configured: log-only delivery
	if _, ok := NewMailer(config.SMTP{}).(LogMailer); !ok {
		t.Error("expected LogMailer when no SMTP host is set")
	}

	if _, ok := NewMailer(config.SMTP{Host: "smtp.example.com"}).(*SMTPMailer); !ok {
		t.Error("expected SMTPMailer when a host is set")
	}
}

func TestDirectNotifier(t *testing.T) {
	sent := struct {
		to, subject, body string
	}{}

	mailer := mailerFunc(func(_ context.Context, to, subject, body string) error {
		sent.to, sent.subject, sent.body = to, subject, body
		return nil
	})

	notifier := NewDirectNotifier(mailer, "http://localhost:3000")
	if err := notifier.SendVerificationEmail(context.Background(), "jane@example.com", "Jane", "tok123"); err != nil {
		t.Fatalf("SendVerificationEmail() error = %v", err)
	}

	if sent.to != "jane@example.com" {
		t.Errorf("to = %q, want jane@example.com", sent.to)
	}
	if !strings.Contains(sent.body, "tok123") {
		t.Errorf("body missing token: %q", sent.body)
	}
}

// mailerFunc adapts a function to the Mailer interface.
type mailerFunc func(ctx context.Context, to, subject, body string) error

func (f mailerFunc) Send(ctx context.Context, to, subject, body string) error {
	return f(ctx, to, subject, body)
}

package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/rs/zerolog/log"

	"github.com/avykov/authcore/internal/notify"
)

// SendVerificationEmailTask delivers the email-verification message for a
// newly registered user.
type SendVerificationEmailTask struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	Token     string `json:"token"`
}

// Config returns the queue configuration for verification email tasks.
// Retention keeps payloads only for failed deliveries so token values do not
// linger in the queue database.
func (t SendVerificationEmailTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "send_verification_email",
		MaxAttempts: 3,
		Backoff:     1 * time.Minute,
		Timeout:     1 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// SendVerificationEmailProcessor creates a processor function for
// SendVerificationEmailTask.
func SendVerificationEmailProcessor(mailer notify.Mailer, clientURL string) backlite.QueueProcessor[SendVerificationEmailTask] {
	return func(ctx context.Context, task SendVerificationEmailTask) error {
		if mailer == nil {
			return fmt.Errorf("mailer not configured")
		}

		subject, body := notify.VerificationEmail(clientURL, task.FirstName, task.Token)
		if err := mailer.Send(ctx, task.Email, subject, body); err != nil {
			return fmt.Errorf("send verification email: %w", err)
		}

		log.Info().Str("email", task.Email).Msg("verification email sent")
		return nil
	}
}

// NewSendVerificationEmailQueue creates a backlite queue for verification
// email tasks.
func NewSendVerificationEmailQueue(mailer notify.Mailer, clientURL string) backlite.Queue {
	return backlite.NewQueue(SendVerificationEmailProcessor(mailer, clientURL))
}

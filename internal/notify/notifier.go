package notify

import "context"

// DirectNotifier sends verification emails synchronously, without going
// through the task queue. Used when the queue is disabled.
type DirectNotifier struct {
	mailer    Mailer
	clientURL string
}

// NewDirectNotifier creates a notifier that delivers inline.
func NewDirectNotifier(mailer Mailer, clientURL string) *DirectNotifier {
	return &DirectNotifier{mailer: mailer, clientURL: clientURL}
}

// SendVerificationEmail builds and delivers the verification message.
func (n *DirectNotifier) SendVerificationEmail(ctx context.Context, to, firstName, token string) error {
	subject, body := VerificationEmail(n.clientURL, firstName, token)
	return n.mailer.Send(ctx, to, subject, body)
}

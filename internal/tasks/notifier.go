package tasks

import "context"

// QueueNotifier hands verification emails off to the task queue. Delivery
// failures retry in the background; enqueueing itself is the only thing that
// can fail here.
type QueueNotifier struct {
	client *Client
}

// NewQueueNotifier creates a notifier backed by the task queue.
func NewQueueNotifier(client *Client) *QueueNotifier {
	return &QueueNotifier{client: client}
}

// SendVerificationEmail enqueues a delivery task for the given recipient.
func (n *QueueNotifier) SendVerificationEmail(_ context.Context, to, firstName, token string) error {
	_, err := n.client.Add(SendVerificationEmailTask{
		Email:     to,
		FirstName: firstName,
		Token:     token,
	}).Save()
	return err
}

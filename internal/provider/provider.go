package provider

import "context"

// EmailSender is the outbound transactional-email port.
type EmailSender interface {
	Send(ctx context.Context, msg Message) (*SendResult, error)
}

// Message is one per-recipient send. BroadcastID tags the send so provider
// webhooks can be attributed back to the owning campaign.
type Message struct {
	From        string
	To          string
	Subject     string
	HTML        string
	BroadcastID string
}

// SendResult stores provider call metadata for persistence.
type SendResult struct {
	MessageID  string
	StatusCode int
}

package domain

import "time"

// EventKind is the recorded delivery-lifecycle state for one recipient.
// Opened and clicked are distinct kinds for dedup purposes even though both
// feed the opened counter.
type EventKind string

const (
	KindDelivered EventKind = "delivered"
	KindOpened    EventKind = "opened"
	KindClicked   EventKind = "clicked"
	KindFailed    EventKind = "failed"
)

func (k EventKind) String() string { return string(k) }

func (k EventKind) IsValid() bool {
	switch k {
	case KindDelivered, KindOpened, KindClicked, KindFailed:
		return true
	}
	return false
}

// KindFromProviderType maps a provider webhook event type to a recorded kind.
// Both bounce and failure collapse into KindFailed so a bounce followed by a
// failure for the same recipient counts once. Unknown types report ok=false
// and must be ignored, not rejected: the provider grows its event vocabulary.
func KindFromProviderType(eventType string) (EventKind, bool) {
	switch eventType {
	case "email.delivered":
		return KindDelivered, true
	case "email.opened":
		return KindOpened, true
	case "email.clicked":
		return KindClicked, true
	case "email.bounced", "email.failed":
		return KindFailed, true
	}
	return "", false
}

// RecipientEvent is the provenance row behind one counter increment. It is
// write-once per (campaign, recipient, kind): the existence of a matching row
// is the dedup guard against replayed webhook deliveries.
type RecipientEvent struct {
	ID         string
	CampaignID string
	Recipient  string
	Kind       EventKind
	CreatedAt  time.Time
}

package domain

import (
	"fmt"
	"strings"
	"time"
)

// CampaignStatus represents the dispatch state of a campaign.
type CampaignStatus string

const (
	StatusSending CampaignStatus = "SENDING"
	StatusSent    CampaignStatus = "SENT"
	StatusFailed  CampaignStatus = "FAILED"
)

func (s CampaignStatus) String() string { return string(s) }

func (s CampaignStatus) IsValid() bool {
	switch s {
	case StatusSending, StatusSent, StatusFailed:
		return true
	}
	return false
}

func ParseCampaignStatus(s string) (CampaignStatus, error) {
	status := CampaignStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", fmt.Errorf("%w: invalid campaign status %q", ErrValidation, s)
	}
	return status, nil
}

const MaxSubjectLen = 200

// Campaign is one subject+body dispatch to one contact list, with aggregate
// delivery counters. The counters are independent accumulators: SentCount and
// FailedCount are written once by the batch sender, the rest are incremented
// by webhook events. They only ever grow.
type Campaign struct {
	ID                 string
	UserID             string
	ContactListID      string
	Subject            string
	Body               string
	BroadcastID        string
	ProviderMessageIDs []string
	Status             CampaignStatus
	SentCount          int
	DeliveredCount     int
	OpenedCount        int
	FailedCount        int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (c *Campaign) Validate() error {
	if c.UserID == "" {
		return fmt.Errorf("%w: owner is required", ErrValidation)
	}
	if c.ContactListID == "" {
		return fmt.Errorf("%w: contact list is required", ErrValidation)
	}
	if c.Subject == "" {
		return fmt.Errorf("%w: subject is required", ErrValidation)
	}
	if subjectLen := len([]rune(c.Subject)); subjectLen > MaxSubjectLen {
		return fmt.Errorf("%w: subject exceeds %d characters (got %d)", ErrValidation, MaxSubjectLen, subjectLen)
	}
	if strings.TrimSpace(c.Body) == "" {
		return fmt.Errorf("%w: email body is required", ErrValidation)
	}
	return nil
}

// DeliveryRate returns delivered/sent as a percentage clamped to [0, 100].
// Counters come from provider events and may transiently disagree with
// SentCount, so the rate is defensive rather than exact.
func (c *Campaign) DeliveryRate() float64 {
	return clampedRate(c.DeliveredCount, c.SentCount)
}

// OpenRate returns opened/sent as a percentage clamped to [0, 100].
func (c *Campaign) OpenRate() float64 {
	return clampedRate(c.OpenedCount, c.SentCount)
}

func clampedRate(part, total int) float64 {
	if total <= 0 || part <= 0 {
		return 0
	}
	rate := float64(part) / float64(total) * 100
	if rate > 100 {
		return 100
	}
	return rate
}

package domain

import (
	"fmt"
	"time"
)

const (
	MaxListNameLen = 100
	MaxListEmails  = 100
)

// ContactList is a named, owned collection of recipient addresses. The order
// of Emails is meaningful and preserved across reads.
type ContactList struct {
	ID         string
	UserID     string
	Name       string
	Emails     []string
	AudienceID *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (l *ContactList) Validate() error {
	if l.UserID == "" {
		return fmt.Errorf("%w: owner is required", ErrValidation)
	}
	if l.Name == "" {
		return fmt.Errorf("%w: contact list name is required", ErrValidation)
	}
	if nameLen := len([]rune(l.Name)); nameLen > MaxListNameLen {
		return fmt.Errorf("%w: name exceeds %d characters (got %d)", ErrValidation, MaxListNameLen, nameLen)
	}
	if len(l.Emails) == 0 {
		return fmt.Errorf("%w: at least one email is required", ErrValidation)
	}
	if len(l.Emails) > MaxListEmails {
		return fmt.Errorf("%w: maximum %d emails allowed per list (got %d)", ErrValidation, MaxListEmails, len(l.Emails))
	}
	for _, email := range l.Emails {
		if !ValidAddress(email) {
			return fmt.Errorf("%w: invalid email address %q", ErrValidation, email)
		}
	}
	return nil
}

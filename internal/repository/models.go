package repository

import (
	"time"

	"github.com/seralp/mailcast/internal/domain"
)

// UserModel is the persistence model for the users table.
type UserModel struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	Email     string `gorm:"type:varchar(255);not null;uniqueIndex"`
	Name      string `gorm:"type:varchar(255);not null"`
	APIKey    string `gorm:"type:varchar(64);not null;uniqueIndex"`
	CreatedAt time.Time
}

func (UserModel) TableName() string {
	return "users"
}

// ContactListModel is the persistence model for contact_lists. Emails keeps
// insertion order as a JSONB array.
type ContactListModel struct {
	ID         string   `gorm:"type:uuid;primaryKey"`
	UserID     string   `gorm:"type:uuid;not null;index"`
	Name       string   `gorm:"type:varchar(100);not null"`
	Emails     []string `gorm:"type:jsonb;serializer:json;not null"`
	AudienceID *string  `gorm:"type:varchar(255)"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (ContactListModel) TableName() string {
	return "contact_lists"
}

// CampaignModel is the persistence model for campaigns.
type CampaignModel struct {
	ID                 string                `gorm:"type:uuid;primaryKey"`
	UserID             string                `gorm:"type:uuid;not null"`
	ContactListID      string                `gorm:"type:uuid;not null;index"`
	Subject            string                `gorm:"type:varchar(200);not null"`
	Body               string                `gorm:"type:text;not null"`
	BroadcastID        string                `gorm:"type:uuid;not null"`
	ProviderMessageIDs []string              `gorm:"type:jsonb;serializer:json"`
	Status             domain.CampaignStatus `gorm:"type:varchar(20);not null"`
	SentCount          int                   `gorm:"not null;default:0"`
	DeliveredCount     int                   `gorm:"not null;default:0"`
	OpenedCount        int                   `gorm:"not null;default:0"`
	FailedCount        int                   `gorm:"not null;default:0"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (CampaignModel) TableName() string {
	return "campaigns"
}

// RecipientEventModel is the persistence model for recipient_events. The
// unique index over (campaign_id, recipient, kind) is the webhook dedup guard.
type RecipientEventModel struct {
	ID         string           `gorm:"type:uuid;primaryKey"`
	CampaignID string           `gorm:"type:uuid;not null"`
	Recipient  string           `gorm:"type:varchar(255);not null"`
	Kind       domain.EventKind `gorm:"type:varchar(20);not null"`
	CreatedAt  time.Time
}

func (RecipientEventModel) TableName() string {
	return "recipient_events"
}

func userModelFromDomain(u *domain.User) *UserModel {
	if u == nil {
		return nil
	}

	return &UserModel{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		APIKey:    u.APIKey,
		CreatedAt: u.CreatedAt,
	}
}

func userModelToDomain(m *UserModel) *domain.User {
	if m == nil {
		return nil
	}

	return &domain.User{
		ID:        m.ID,
		Email:     m.Email,
		Name:      m.Name,
		APIKey:    m.APIKey,
		CreatedAt: m.CreatedAt,
	}
}

func contactListModelFromDomain(l *domain.ContactList) *ContactListModel {
	if l == nil {
		return nil
	}

	return &ContactListModel{
		ID:         l.ID,
		UserID:     l.UserID,
		Name:       l.Name,
		Emails:     l.Emails,
		AudienceID: l.AudienceID,
		CreatedAt:  l.CreatedAt,
		UpdatedAt:  l.UpdatedAt,
	}
}

func contactListModelToDomain(m *ContactListModel) *domain.ContactList {
	if m == nil {
		return nil
	}

	return &domain.ContactList{
		ID:         m.ID,
		UserID:     m.UserID,
		Name:       m.Name,
		Emails:     m.Emails,
		AudienceID: m.AudienceID,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func campaignModelFromDomain(c *domain.Campaign) *CampaignModel {
	if c == nil {
		return nil
	}

	return &CampaignModel{
		ID:                 c.ID,
		UserID:             c.UserID,
		ContactListID:      c.ContactListID,
		Subject:            c.Subject,
		Body:               c.Body,
		BroadcastID:        c.BroadcastID,
		ProviderMessageIDs: c.ProviderMessageIDs,
		Status:             c.Status,
		SentCount:          c.SentCount,
		DeliveredCount:     c.DeliveredCount,
		OpenedCount:        c.OpenedCount,
		FailedCount:        c.FailedCount,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

func campaignModelToDomain(m *CampaignModel) *domain.Campaign {
	if m == nil {
		return nil
	}

	return &domain.Campaign{
		ID:                 m.ID,
		UserID:             m.UserID,
		ContactListID:      m.ContactListID,
		Subject:            m.Subject,
		Body:               m.Body,
		BroadcastID:        m.BroadcastID,
		ProviderMessageIDs: m.ProviderMessageIDs,
		Status:             m.Status,
		SentCount:          m.SentCount,
		DeliveredCount:     m.DeliveredCount,
		OpenedCount:        m.OpenedCount,
		FailedCount:        m.FailedCount,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

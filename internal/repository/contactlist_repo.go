package repository

import (
	"context"
	"errors"

	"github.com/seralp/mailcast/internal/domain"
	"gorm.io/gorm"
)

// ContactListWithCampaigns pairs a list with how many campaigns reference it.
type ContactListWithCampaigns struct {
	List          domain.ContactList
	CampaignCount int
}

type ContactListRepository interface {
	Create(ctx context.Context, l *domain.ContactList) error
	GetByID(ctx context.Context, id string, userID string) (*domain.ContactList, error)
	ListByUser(ctx context.Context, userID string) ([]ContactListWithCampaigns, error)
	Update(ctx context.Context, l *domain.ContactList) error
	Delete(ctx context.Context, id string, userID string) error
}

type GormContactListRepo struct {
	db *gorm.DB
}

func NewGormContactListRepo(db *gorm.DB) *GormContactListRepo {
	return &GormContactListRepo{db: db}
}

func (r *GormContactListRepo) Create(ctx context.Context, l *domain.ContactList) error {
	model := contactListModelFromDomain(l)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if l != nil {
		*l = *contactListModelToDomain(model)
	}
	return nil
}

func (r *GormContactListRepo) GetByID(ctx context.Context, id string, userID string) (*domain.ContactList, error) {
	var model ContactListModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return contactListModelToDomain(&model), nil
}

func (r *GormContactListRepo) ListByUser(ctx context.Context, userID string) ([]ContactListWithCampaigns, error) {
	var models []ContactListModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	type listCount struct {
		ContactListID string `gorm:"column:contact_list_id"`
		Count         int    `gorm:"column:count"`
	}
	var counts []listCount
	err = r.db.WithContext(ctx).
		Model(&CampaignModel{}).
		Select("contact_list_id, COUNT(*) as count").
		Where("user_id = ?", userID).
		Group("contact_list_id").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}

	countByList := make(map[string]int, len(counts))
	for _, c := range counts {
		countByList[c.ContactListID] = c.Count
	}

	lists := make([]ContactListWithCampaigns, 0, len(models))
	for i := range models {
		lists = append(lists, ContactListWithCampaigns{
			List:          *contactListModelToDomain(&models[i]),
			CampaignCount: countByList[models[i].ID],
		})
	}

	return lists, nil
}

func (r *GormContactListRepo) Update(ctx context.Context, l *domain.ContactList) error {
	if l == nil {
		return domain.ErrNotFound
	}

	// Struct-based update so the JSONB serializer applies to emails.
	result := r.db.WithContext(ctx).
		Model(&ContactListModel{}).
		Where("id = ? AND user_id = ?", l.ID, l.UserID).
		Select("name", "emails", "audience_id", "updated_at").
		Updates(&ContactListModel{Name: l.Name, Emails: l.Emails, AudienceID: l.AudienceID})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes the list and everything hanging off it: recipient events of
// its campaigns, the campaigns themselves, then the list row.
func (r *GormContactListRepo) Delete(ctx context.Context, id string, userID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var list ContactListModel
		err := tx.Where("id = ? AND user_id = ?", id, userID).First(&list).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}

		campaignIDs := tx.Model(&CampaignModel{}).
			Select("id").
			Where("contact_list_id = ?", id)

		if err := tx.Where("campaign_id IN (?)", campaignIDs).
			Delete(&RecipientEventModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("contact_list_id = ?", id).
			Delete(&CampaignModel{}).Error; err != nil {
			return err
		}
		return tx.Delete(&list).Error
	})
}

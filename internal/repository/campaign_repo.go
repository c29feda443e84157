package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/seralp/mailcast/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ListParams struct {
	Status   *domain.CampaignStatus
	Search   string
	Page     int
	PageSize int
}

// UserSummary aggregates a user's campaign counters for the dashboard.
type UserSummary struct {
	Campaigns int64 `gorm:"column:campaigns"`
	Sent      int64 `gorm:"column:sent"`
	Delivered int64 `gorm:"column:delivered"`
	Opened    int64 `gorm:"column:opened"`
	Failed    int64 `gorm:"column:failed"`
}

type CampaignRepository interface {
	Create(ctx context.Context, c *domain.Campaign) error
	GetByID(ctx context.Context, id string, userID string) (*domain.Campaign, error)
	GetByBroadcastID(ctx context.Context, broadcastID string) (*domain.Campaign, error)
	List(ctx context.Context, userID string, params ListParams) ([]domain.Campaign, int64, error)
	FinalizeSend(ctx context.Context, id string, status domain.CampaignStatus, sentCount int, failedCount int, providerMessageIDs []string) error
	Delete(ctx context.Context, id string, userID string) error
	DeleteAllByUser(ctx context.Context, userID string) (int64, error)
	SummaryByUser(ctx context.Context, userID string) (*UserSummary, error)
	RecordRecipientEvent(ctx context.Context, campaignID string, recipient string, kind domain.EventKind) (bool, error)
}

type GormCampaignRepo struct {
	db *gorm.DB
}

func NewGormCampaignRepo(db *gorm.DB) *GormCampaignRepo {
	return &GormCampaignRepo{db: db}
}

func (r *GormCampaignRepo) Create(ctx context.Context, c *domain.Campaign) error {
	model := campaignModelFromDomain(c)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if c != nil {
		*c = *campaignModelToDomain(model)
	}
	return nil
}

func (r *GormCampaignRepo) GetByID(ctx context.Context, id string, userID string) (*domain.Campaign, error) {
	var model CampaignModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return campaignModelToDomain(&model), nil
}

func (r *GormCampaignRepo) GetByBroadcastID(ctx context.Context, broadcastID string) (*domain.Campaign, error) {
	var model CampaignModel
	err := r.db.WithContext(ctx).
		Where("broadcast_id = ?", broadcastID).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return campaignModelToDomain(&model), nil
}

func (r *GormCampaignRepo) List(ctx context.Context, userID string, params ListParams) ([]domain.Campaign, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&CampaignModel{}).
		Where("campaigns.user_id = ?", userID)

	if params.Status != nil {
		query = query.Where("campaigns.status = ?", *params.Status)
	}
	if params.Search != "" {
		// Search spans the subject and the target list's name.
		pattern := "%" + params.Search + "%"
		query = query.
			Joins("LEFT JOIN contact_lists ON contact_lists.id = campaigns.contact_list_id").
			Where("(campaigns.subject ILIKE ? OR contact_lists.name ILIKE ?)", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := max(params.Page, 1)
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 10
	}
	pageSize = min(pageSize, 100)

	var models []CampaignModel
	err := query.
		Select("campaigns.*").
		Order("campaigns.created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	campaigns := make([]domain.Campaign, 0, len(models))
	for i := range models {
		campaigns = append(campaigns, *campaignModelToDomain(&models[i]))
	}

	return campaigns, total, nil
}

// FinalizeSend writes the batch sender's aggregate outcome in one update.
func (r *GormCampaignRepo) FinalizeSend(
	ctx context.Context,
	id string,
	status domain.CampaignStatus,
	sentCount int,
	failedCount int,
	providerMessageIDs []string,
) error {
	result := r.db.WithContext(ctx).
		Model(&CampaignModel{}).
		Where("id = ?", id).
		Select("status", "sent_count", "failed_count", "provider_message_ids", "updated_at").
		Updates(&CampaignModel{
			Status:             status,
			SentCount:          sentCount,
			FailedCount:        failedCount,
			ProviderMessageIDs: providerMessageIDs,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormCampaignRepo) Delete(ctx context.Context, id string, userID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model CampaignModel
		err := tx.Where("id = ? AND user_id = ?", id, userID).First(&model).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}

		if err := tx.Where("campaign_id = ?", id).
			Delete(&RecipientEventModel{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model).Error
	})
}

func (r *GormCampaignRepo) DeleteAllByUser(ctx context.Context, userID string) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		campaignIDs := tx.Model(&CampaignModel{}).
			Select("id").
			Where("user_id = ?", userID)

		if err := tx.Where("campaign_id IN (?)", campaignIDs).
			Delete(&RecipientEventModel{}).Error; err != nil {
			return err
		}

		result := tx.Where("user_id = ?", userID).Delete(&CampaignModel{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected
		return nil
	})
	return deleted, err
}

func (r *GormCampaignRepo) SummaryByUser(ctx context.Context, userID string) (*UserSummary, error) {
	var summary UserSummary
	err := r.db.WithContext(ctx).
		Model(&CampaignModel{}).
		Select(`COUNT(*) as campaigns,
			COALESCE(SUM(sent_count), 0) as sent,
			COALESCE(SUM(delivered_count), 0) as delivered,
			COALESCE(SUM(opened_count), 0) as opened,
			COALESCE(SUM(failed_count), 0) as failed`).
		Where("user_id = ?", userID).
		Scan(&summary).Error
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// RecordRecipientEvent inserts the provenance row and bumps the matching
// counter inside one transaction. The conditional insert rides on the
// (campaign_id, recipient, kind) unique index, so concurrent redeliveries of
// the same event race down to exactly one increment. Returns whether this
// call was the one that recorded the event.
func (r *GormCampaignRepo) RecordRecipientEvent(
	ctx context.Context,
	campaignID string,
	recipient string,
	kind domain.EventKind,
) (bool, error) {
	inserted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		event := RecipientEventModel{
			ID:         uuid.NewString(),
			CampaignID: campaignID,
			Recipient:  recipient,
			Kind:       kind,
			CreatedAt:  time.Now().UTC(),
		}

		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&event)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		inserted = true

		column := counterColumn(kind)
		return tx.Model(&CampaignModel{}).
			Where("id = ?", campaignID).
			UpdateColumn(column, gorm.Expr(column+" + 1")).Error
	})
	if err != nil {
		return false, err
	}
	return inserted, nil
}

// counterColumn maps an event kind to the campaign aggregate it feeds.
// Opened and clicked both feed opened_count.
func counterColumn(kind domain.EventKind) string {
	switch kind {
	case domain.KindDelivered:
		return "delivered_count"
	case domain.KindOpened, domain.KindClicked:
		return "opened_count"
	default:
		return "failed_count"
	}
}

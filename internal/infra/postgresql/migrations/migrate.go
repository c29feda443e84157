package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/seralp/mailcast/internal/repository"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "000001_create_users",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&repository.UserModel{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.UserModel{})
			},
		},
		{
			ID: "000002_create_contact_lists",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&repository.ContactListModel{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.ContactListModel{})
			},
		},
		{
			ID: "000003_create_campaigns",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.CampaignModel{}); err != nil {
					return err
				}
				indexes := []string{
					`CREATE UNIQUE INDEX IF NOT EXISTS idx_campaigns_broadcast_id ON campaigns (broadcast_id)`,
					`CREATE INDEX IF NOT EXISTS idx_campaigns_user_created ON campaigns (user_id, created_at)`,
				}
				for _, sql := range indexes {
					if err := tx.Exec(sql).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.CampaignModel{})
			},
		},
		{
			ID: "000004_create_recipient_events",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.RecipientEventModel{}); err != nil {
					return err
				}
				// Dedup guard: one row per (campaign, recipient, kind).
				return tx.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_recipient_events_dedup ON recipient_events (campaign_id, recipient, kind)`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.RecipientEventModel{})
			},
		},
	})

	return m.Migrate()
}

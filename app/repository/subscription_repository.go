package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tsunagi-works/tsunagi/app/models"
)

type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a subscription repository backed by GORM.
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) GetByUserID(userID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("user_id = ?", userID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) Upsert(sub *models.Subscription) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"plan_id",
			"fincode_customer_id",
			"fincode_card_id",
			"fincode_subscription_id",
			"status",
			"start_date",
			"next_charge_date",
			"cancel_at",
			"raw_payload",
			"updated_at",
		}),
	}).Create(sub).Error; err != nil {
		return err
	}

	// Re-read so the caller sees the stored row, not stale in-memory state.
	return r.db.Where("user_id = ?", sub.UserID).First(sub).Error
}

package models

import "time"

// Local status tokens written by this application. The gateway is
// authoritative for status semantics, so remote-reported values are stored
// verbatim rather than mapped onto a closed enum.
const (
	SubscriptionStatusPending        = "pending"
	SubscriptionStatusActive         = "active"
	SubscriptionStatusCardRegistered = "card_registered"
	SubscriptionStatusCanceled       = "canceled"
)

// Subscription mirrors the fincode subscription state for a user. A user has
// at most one row; every card/subscribe/cancel action and every successful
// remote refresh updates it in place. Date columns hold Y-m-d strings, the
// storage format; the gateway wire format (Y/m/d) never reaches the database.
type Subscription struct {
	ID                    uint      `gorm:"primaryKey" json:"id"`
	UserID                uint      `gorm:"not null;uniqueIndex:ux_subscriptions_user" json:"user_id"`
	PlanID                string    `gorm:"type:varchar(191);not null;default:''" json:"plan_id"`
	FincodeCustomerID     string    `gorm:"type:varchar(191);not null;default:''" json:"fincode_customer_id"`
	FincodeCardID         *string   `gorm:"type:varchar(191);default:null" json:"fincode_card_id"`
	FincodeSubscriptionID *string   `gorm:"type:varchar(191);default:null" json:"fincode_subscription_id"`
	Status                string    `gorm:"type:varchar(32);not null;default:'pending'" json:"status"`
	StartDate             *string   `gorm:"type:date;default:null" json:"start_date"`
	NextChargeDate        *string   `gorm:"type:date;default:null" json:"next_charge_date"`
	CancelAt              *string   `gorm:"type:date;default:null" json:"cancel_at"`
	RawPayload            string    `gorm:"type:longtext" json:"-"`
	CreatedAt             time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// CardID returns the stored card id or "" when none is registered.
func (s *Subscription) CardID() string {
	if s.FincodeCardID == nil {
		return ""
	}
	return *s.FincodeCardID
}

// SubscriptionID returns the stored gateway subscription id or "".
func (s *Subscription) SubscriptionID() string {
	if s.FincodeSubscriptionID == nil {
		return ""
	}
	return *s.FincodeSubscriptionID
}

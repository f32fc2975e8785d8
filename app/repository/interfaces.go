package repository

import (
	"github.com/tsunagi-works/tsunagi/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	// Register creates the user inside a transaction, re-checking email
	// uniqueness so a concurrent registration cannot slip past the
	// handler-level duplicate check.
	Register(user *models.User) error
	// SetCustomerIDIfEmpty links a gateway customer id to the user only when
	// no linkage exists yet. An existing non-empty id is never overwritten.
	SetCustomerIDIfEmpty(userID uint, customerID string) error
	Update(user *models.User) error
	Count() (int64, error)
}

// SubscriptionRepository defines the interface for subscription rows. Each
// user has at most one row, keyed by user_id.
type SubscriptionRepository interface {
	GetByUserID(userID uint) (*models.Subscription, error)
	// Upsert inserts or replaces the user's row and reloads it afterwards so
	// the caller never hands out stale in-memory state.
	Upsert(sub *models.Subscription) error
}

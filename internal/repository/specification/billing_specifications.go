package specification

import (
	"time"

	"billing-sync-be/internal/repository/scope"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Account specs

type ByEmail struct {
	Email string
}

func (s ByEmail) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("email = ?", s.Email)
}

type ByCustomerId struct {
	CustomerId string
}

func (s ByCustomerId) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("customer_id = ?", s.CustomerId)
}

// Subscription specs

type BySubscriptionId struct {
	SubscriptionId string
}

func (s BySubscriptionId) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("subscription_id = ?", s.SubscriptionId)
}

type OwnedByAccount struct {
	AccountId uuid.UUID
}

func (s OwnedByAccount) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("account_id = ?", s.AccountId)
}

type LiveSubscriptions struct{}

func (s LiveSubscriptions) Apply(db *gorm.DB) *gorm.DB {
	return scope.LiveSubscriptions(db)
}

// PeriodEndingBetween matches records whose current period ends in [From, To).
type PeriodEndingBetween struct {
	From time.Time
	To   time.Time
}

func (s PeriodEndingBetween) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("current_period_end >= ? AND current_period_end < ?", s.From, s.To)
}

// Queue specs

type ByStatus struct {
	Status string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

type ByRecipient struct {
	Recipient string
}

func (s ByRecipient) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("recipient = ?", s.Recipient)
}

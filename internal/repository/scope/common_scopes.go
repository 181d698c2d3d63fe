package scope

import (
	"billing-sync-be/internal/entity"

	"gorm.io/gorm"
)

func OrderByCreatedAsc(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC")
}

// LiveSubscriptions keeps records that still grant a paid role.
func LiveSubscriptions(db *gorm.DB) *gorm.DB {
	return db.Where("status IN ?", []string{
		string(entity.SubscriptionStatusActive),
		string(entity.SubscriptionStatusTrialing),
		string(entity.SubscriptionStatusPastDue),
		string(entity.SubscriptionStatusUnpaid),
	})
}

// Unprocessed keeps outbox rows not yet published.
func Unprocessed(db *gorm.DB) *gorm.DB {
	return db.Where("processed_at IS NULL")
}

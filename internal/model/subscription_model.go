package model

import (
	"time"

	"github.com/google/uuid"
)

type SubscriptionRecord struct {
	Id                 uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SubscriptionId     string     `gorm:"type:varchar(255);uniqueIndex;not null"`
	AccountId          uuid.UUID  `gorm:"type:uuid;not null;index"`
	CustomerId         string     `gorm:"type:varchar(255);not null;index"`
	PriceId            string     `gorm:"type:varchar(255)"`
	PlanInterval       string     `gorm:"type:varchar(20);not null;default:'monthly'"`
	Status             string     `gorm:"type:varchar(20);not null;index"`
	CancelAtPeriodEnd  bool       `gorm:"default:false"`
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time `gorm:"index"`
	CreatedAt          time.Time  `gorm:"autoCreateTime"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime"`
}

func (SubscriptionRecord) TableName() string {
	return "subscription_records"
}

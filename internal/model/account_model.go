package model

import (
	"time"

	"github.com/google/uuid"
)

type Account struct {
	Id                 uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Email              string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	FullName           string    `gorm:"type:varchar(255);not null;default:''"`
	CustomerId         *string   `gorm:"type:varchar(255);uniqueIndex"`
	Role               string    `gorm:"type:varchar(20);not null;default:'Free'"`
	SubscriptionStatus string    `gorm:"type:varchar(20);not null;default:'none'"`
	SubscriptionId     *string   `gorm:"type:varchar(255)"`
	CreatedAt          time.Time `gorm:"autoCreateTime"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime"`
}

func (Account) TableName() string {
	return "accounts"
}

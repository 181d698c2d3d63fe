package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// NotificationQueueItem is one pending or retired outbound email.
type NotificationQueueItem struct {
	Id          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	AccountId   *uuid.UUID     `gorm:"type:uuid;index" json:"account_id,omitempty"`
	Recipient   string         `gorm:"type:varchar(255);not null;uniqueIndex:idx_notification_queue_dedupe,priority:1" json:"recipient"`
	Kind        string         `gorm:"type:varchar(50);not null;uniqueIndex:idx_notification_queue_dedupe,priority:2" json:"kind"`
	DedupeKey   string         `gorm:"type:varchar(255);not null;uniqueIndex:idx_notification_queue_dedupe,priority:3" json:"dedupe_key"`
	Payload     datatypes.JSON `gorm:"type:jsonb" json:"payload"`
	Subject     string         `gorm:"type:varchar(255)" json:"subject"`
	Status      string         `gorm:"type:varchar(20);not null;default:'pending';index:idx_notification_queue_status_created,priority:1" json:"status"`
	Attempts    int            `gorm:"not null;default:0" json:"attempts"`
	MaxAttempts int            `gorm:"not null;default:3" json:"max_attempts"`
	LastError   *string        `gorm:"type:text" json:"last_error,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime;index:idx_notification_queue_status_created,priority:2" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	SentAt      *time.Time     `json:"sent_at,omitempty"`
}

func (NotificationQueueItem) TableName() string {
	return "notification_queue"
}

// OutboxEvent is a billing event waiting to be published on the event bus.
type OutboxEvent struct {
	Id          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EventType   string         `gorm:"type:varchar(100);not null"`
	AccountId   uuid.UUID      `gorm:"type:uuid;not null;index"`
	Payload     datatypes.JSON `gorm:"type:jsonb"`
	Attempts    int            `gorm:"not null;default:0"`
	LastError   *string        `gorm:"type:text"`
	ProcessedAt *time.Time     `gorm:"index"`
	CreatedAt   time.Time      `gorm:"autoCreateTime;index"`
}

func (OutboxEvent) TableName() string {
	return "event_outbox"
}

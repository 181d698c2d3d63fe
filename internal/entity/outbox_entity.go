package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	BillingEventRoleChanged           = "billing.ROLE_CHANGED"
	BillingEventSubscriptionActivated = "billing.SUBSCRIPTION_ACTIVATED"
	BillingEventSubscriptionCancelled = "billing.SUBSCRIPTION_CANCELLED"
)

type OutboxEvent struct {
	Id          uuid.UUID
	EventType   string
	AccountId   uuid.UUID
	Payload     map[string]interface{}
	Attempts    int
	LastError   *string
	ProcessedAt *time.Time
	CreatedAt   time.Time
}

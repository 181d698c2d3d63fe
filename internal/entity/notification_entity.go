package entity

import (
	"time"

	"github.com/google/uuid"
)

type NotificationKind string
type NotificationStatus string

const (
	NotificationKindSignUp                NotificationKind = "sign-up"
	NotificationKindPayment               NotificationKind = "payment"
	NotificationKindRoleChange            NotificationKind = "role-change"
	NotificationKindSubscriptionCancelled NotificationKind = "subscription-cancelled"
	NotificationKindRenewalReminder       NotificationKind = "renewal-reminder"

	NotificationStatusPending    NotificationStatus = "pending"
	NotificationStatusProcessing NotificationStatus = "processing"
	NotificationStatusSent       NotificationStatus = "sent"
	NotificationStatusFailed     NotificationStatus = "failed"

	DefaultMaxAttempts = 3
)

type NotificationQueueItem struct {
	Id          uuid.UUID
	AccountId   *uuid.UUID
	Recipient   string
	Kind        NotificationKind
	DedupeKey   string
	Payload     map[string]interface{}
	Subject     string
	Status      NotificationStatus
	Attempts    int
	MaxAttempts int
	LastError   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	SentAt      *time.Time
}

// CanRetry reports whether a failed delivery should go back to pending.
func (n *NotificationQueueItem) CanRetry() bool {
	return n.Attempts < n.MaxAttempts
}

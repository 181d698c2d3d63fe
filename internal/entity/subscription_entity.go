package entity

import (
	"time"

	"github.com/google/uuid"
)

type SubscriptionStatus string
type PlanInterval string

const (
	SubscriptionStatusIncomplete SubscriptionStatus = "incomplete"
	SubscriptionStatusTrialing   SubscriptionStatus = "trialing"
	SubscriptionStatusActive     SubscriptionStatus = "active"
	SubscriptionStatusPastDue    SubscriptionStatus = "past_due"
	SubscriptionStatusUnpaid     SubscriptionStatus = "unpaid"
	SubscriptionStatusCancelled  SubscriptionStatus = "cancelled"

	PlanIntervalMonthly PlanInterval = "monthly"
	PlanIntervalYearly  PlanInterval = "yearly"
)

// IsLive reports whether the subscription still grants a paid role.
func (s SubscriptionStatus) IsLive() bool {
	switch s {
	case SubscriptionStatusActive, SubscriptionStatusTrialing, SubscriptionStatusPastDue, SubscriptionStatusUnpaid:
		return true
	}
	return false
}

// AccountStatus collapses the provider lifecycle onto the account-level set.
func (s SubscriptionStatus) AccountStatus() AccountSubscriptionStatus {
	switch s {
	case SubscriptionStatusActive, SubscriptionStatusTrialing:
		return AccountSubscriptionActive
	case SubscriptionStatusPastDue, SubscriptionStatusUnpaid:
		return AccountSubscriptionPastDue
	case SubscriptionStatusCancelled:
		return AccountSubscriptionCancelled
	}
	return AccountSubscriptionNone
}

type SubscriptionRecord struct {
	Id                 uuid.UUID
	SubscriptionId     string
	AccountId          uuid.UUID
	CustomerId         string
	PriceId            string
	PlanInterval       PlanInterval
	Status             SubscriptionStatus
	CancelAtPeriodEnd  bool
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

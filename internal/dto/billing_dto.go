// FILE: internal/dto/billing_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"
)

// --- Reconciliation ---

// ReconcileRequest identifies the provider subscription to apply. The hints
// come from the triggering event (checkout session metadata) and are only
// used when the subscription itself does not carry them.
type ReconcileRequest struct {
	SubscriptionId string
	AccountHint    string
	PlanHint       string
}

type ReconcileResult struct {
	AccountId          uuid.UUID `json:"account_id"`
	Role               string    `json:"role"`
	SubscriptionStatus string    `json:"subscription_status"`
	SubscriptionId     *string   `json:"subscription_id"`
	RoleChanged        bool      `json:"role_changed"`
}

// --- Session-Reconciliation Fallback ---

type SessionSyncRequest struct {
	SessionId string `json:"session_id" validate:"required"`
	UserId    string `json:"user_id" validate:"required,uuid"`
}

type SessionSyncResponse struct {
	Success        bool    `json:"success"`
	Role           string  `json:"role"`
	SubscriptionId *string `json:"subscription_id"`
}

// --- Checkout ---

type CheckoutRequest struct {
	PriceId string `json:"price_id" validate:"required"`
}

type CheckoutResponse struct {
	SessionId string `json:"session_id"`
	URL       string `json:"url"`
}

// --- Webhook ---

type WebhookResult struct {
	EventId string `json:"event_id"`
	Type    string `json:"type"`
	Outcome string `json:"outcome"`
}

const (
	WebhookOutcomeApplied = "applied"
	WebhookOutcomeIgnored = "ignored"
)

// --- Internal admin ---

type CreateAccountRequest struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"required,max=255"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=Free Student Teacher Admin"`
}

type AccountResponse struct {
	Id                 uuid.UUID `json:"id"`
	Email              string    `json:"email"`
	FullName           string    `json:"full_name"`
	CustomerId         *string   `json:"customer_id"`
	Role               string    `json:"role"`
	SubscriptionStatus string    `json:"subscription_status"`
	SubscriptionId     *string   `json:"subscription_id"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type NotificationItemResponse struct {
	Id          uuid.UUID              `json:"id"`
	Recipient   string                 `json:"recipient"`
	Kind        string                 `json:"kind"`
	Status      string                 `json:"status"`
	Attempts    int                    `json:"attempts"`
	MaxAttempts int                    `json:"max_attempts"`
	LastError   *string                `json:"last_error,omitempty"`
	Payload     map[string]interface{} `json:"payload"`
	CreatedAt   time.Time              `json:"created_at"`
	SentAt      *time.Time             `json:"sent_at,omitempty"`
}

// SweepResult summarizes one notification queue pass.
type SweepResult struct {
	Claimed int `json:"claimed"`
	Sent    int `json:"sent"`
	Retried int `json:"retried"`
	Failed  int `json:"failed"`
}

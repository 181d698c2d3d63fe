package payment

import (
	"context"
	"time"
)

// Subscription is the provider's authoritative view of one subscription.
type Subscription struct {
	Id                 string
	CustomerId         string
	Status             string
	PriceId            string
	Interval           string
	Metadata           map[string]string
	CancelAtPeriodEnd  bool
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
}

type CheckoutSession struct {
	Id                string
	Mode              string
	URL               string
	SubscriptionId    string
	CustomerId        string
	ClientReferenceId string
	Metadata          map[string]string
}

type CheckoutParams struct {
	CustomerId string
	PriceId    string
	AccountId  string
	SuccessURL string
	CancelURL  string
}

type CustomerParams struct {
	Email     string
	Name      string
	AccountId string
}

// Provider is the outbound surface of the payment provider.
type Provider interface {
	GetSubscription(ctx context.Context, id string) (*Subscription, error)
	GetCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error)
	CreateCustomer(ctx context.Context, params CustomerParams) (string, error)
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)
}

const (
	CheckoutModeSubscription = "subscription"

	// MetadataAccountId is the metadata key carrying the internal account id.
	MetadataAccountId = "userId"
	// MetadataPlanType optionally names the plan role on a session or subscription.
	MetadataPlanType = "planType"
)

package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
)

// StripeProvider talks to Stripe through an explicitly constructed client.
type StripeProvider struct {
	api     *client.API
	timeout time.Duration
}

func NewStripeProvider(secretKey string, timeout time.Duration) *StripeProvider {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeProvider{api: api, timeout: timeout}
}

// ErrNotFound marks a resource the provider does not know.
var ErrNotFound = errors.New("provider resource not found")

func (p *StripeProvider) GetSubscription(ctx context.Context, id string) (*Subscription, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	sub, err := p.api.Subscriptions.Get(id, params)
	if err != nil {
		return nil, classify(err)
	}
	return FromStripeSubscription(sub), nil
}

func (p *StripeProvider) GetCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	session, err := p.api.CheckoutSessions.Get(id, params)
	if err != nil {
		return nil, classify(err)
	}
	return FromStripeCheckoutSession(session), nil
}

func (p *StripeProvider) CreateCustomer(ctx context.Context, in CustomerParams) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	params := &stripe.CustomerParams{
		Email: stripe.String(in.Email),
	}
	if in.Name != "" {
		params.Name = stripe.String(in.Name)
	}
	params.Context = ctx
	params.AddMetadata(MetadataAccountId, in.AccountId)
	// Retried creations for the same account must not produce two customers.
	params.SetIdempotencyKey("customer-" + in.AccountId)

	customer, err := p.api.Customers.New(params)
	if err != nil {
		return "", classify(err)
	}
	return customer.ID, nil
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, in CheckoutParams) (*CheckoutSession, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	params := &stripe.CheckoutSessionParams{
		Customer:           stripe.String(in.CustomerId),
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(in.PriceId),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(in.SuccessURL),
		CancelURL:         stripe.String(in.CancelURL),
		ClientReferenceID: stripe.String(in.AccountId),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{MetadataAccountId: in.AccountId},
		},
	}
	params.Context = ctx
	params.AddMetadata(MetadataAccountId, in.AccountId)

	session, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, classify(err)
	}
	return FromStripeCheckoutSession(session), nil
}

// FromStripeSubscription flattens a Stripe subscription, as fetched or as
// decoded from a webhook payload.
func FromStripeSubscription(sub *stripe.Subscription) *Subscription {
	if sub == nil {
		return nil
	}
	out := &Subscription{
		Id:                sub.ID,
		Status:            string(sub.Status),
		Metadata:          sub.Metadata,
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if sub.Customer != nil {
		out.CustomerId = sub.Customer.ID
	}
	if sub.CurrentPeriodStart > 0 {
		out.CurrentPeriodStart = time.Unix(sub.CurrentPeriodStart, 0).UTC()
	}
	if sub.CurrentPeriodEnd > 0 {
		out.CurrentPeriodEnd = time.Unix(sub.CurrentPeriodEnd, 0).UTC()
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		if price := sub.Items.Data[0].Price; price != nil {
			out.PriceId = price.ID
			if price.Recurring != nil {
				out.Interval = string(price.Recurring.Interval)
			}
		}
	}
	return out
}

func FromStripeCheckoutSession(session *stripe.CheckoutSession) *CheckoutSession {
	if session == nil {
		return nil
	}
	out := &CheckoutSession{
		Id:                session.ID,
		Mode:              string(session.Mode),
		URL:               session.URL,
		ClientReferenceId: session.ClientReferenceID,
		Metadata:          session.Metadata,
	}
	if session.Subscription != nil {
		out.SubscriptionId = session.Subscription.ID
	}
	if session.Customer != nil {
		out.CustomerId = session.Customer.ID
	}
	return out
}

func classify(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.Code == stripe.ErrorCodeResourceMissing || stripeErr.HTTPStatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %s", ErrNotFound, stripeErr.Msg)
		}
	}
	return err
}

// IsNotFound reports whether err came from a missing provider resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// FILE: internal/service/webhook_service.go
package service

import (
	"context"
	"encoding/json"
	"fmt"

	"billing-sync-be/internal/dto"
	"billing-sync-be/internal/pkg/logger"
	"billing-sync-be/internal/pkg/retry"
	"billing-sync-be/pkg/payment"

	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/webhook"
)

const (
	EventCheckoutSessionCompleted = "checkout.session.completed"
	EventSubscriptionCreated      = "customer.subscription.created"
	EventSubscriptionUpdated      = "customer.subscription.updated"
	EventSubscriptionDeleted      = "customer.subscription.deleted"
	EventInvoicePaymentSucceeded  = "invoice.payment_succeeded"
	EventInvoicePaymentFailed     = "invoice.payment_failed"
)

type IWebhookService interface {
	// Handle verifies and applies one provider event. A nil error means the
	// event was acted upon or deliberately ignored and must be acknowledged.
	Handle(ctx context.Context, payload []byte, signature string) (*dto.WebhookResult, error)
}

type webhookService struct {
	secret     string
	reconciler IReconcilerService
	retrier    *retry.Retrier
	logger     logger.ILogger
}

func NewWebhookService(secret string, reconciler IReconcilerService, retrier *retry.Retrier, logger logger.ILogger) IWebhookService {
	return &webhookService{
		secret:     secret,
		reconciler: reconciler,
		retrier:    retrier,
		logger:     logger,
	}
}

func (s *webhookService) Handle(ctx context.Context, payload []byte, signature string) (*dto.WebhookResult, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.secret)
	if err != nil {
		s.logger.Warn("WEBHOOK", "Rejected event with invalid signature", map[string]interface{}{"error": err.Error()})
		return nil, fmt.Errorf("%w: %v", dto.ErrSignatureInvalid, err)
	}

	result := &dto.WebhookResult{EventId: event.ID, Type: event.Type, Outcome: dto.WebhookOutcomeIgnored}

	err = s.retrier.Do(ctx, func(ctx context.Context) error {
		applied, dispatchErr := s.dispatch(ctx, &event)
		if dispatchErr != nil {
			return dispatchErr
		}
		if applied {
			result.Outcome = dto.WebhookOutcomeApplied
		}
		return nil
	})
	if err != nil {
		s.logger.Error("WEBHOOK", "Event processing failed", map[string]interface{}{
			"event_id":  event.ID,
			"type":      event.Type,
			"transient": retry.IsTransient(err),
			"error":     err.Error(),
		})
		return nil, err
	}

	s.logger.Info("WEBHOOK", "Event processed", map[string]interface{}{
		"event_id": event.ID,
		"type":     event.Type,
		"outcome":  result.Outcome,
	})
	return result, nil
}

// dispatch reports whether the event changed state. Unknown kinds are
// ignored so new provider events never cause redelivery loops.
func (s *webhookService) dispatch(ctx context.Context, event *stripe.Event) (bool, error) {
	switch event.Type {
	case EventCheckoutSessionCompleted:
		var session stripe.CheckoutSession
		if err := decodeEventObject(event, &session); err != nil {
			return false, err
		}
		if session.Mode != stripe.CheckoutSessionModeSubscription || session.Subscription == nil || session.Subscription.ID == "" {
			return false, nil
		}
		accountHint := session.Metadata[payment.MetadataAccountId]
		if accountHint == "" {
			accountHint = session.ClientReferenceID
		}
		_, err := s.reconciler.Reconcile(ctx, dto.ReconcileRequest{
			SubscriptionId: session.Subscription.ID,
			AccountHint:    accountHint,
			PlanHint:       session.Metadata[payment.MetadataPlanType],
		})
		return err == nil, err

	case EventSubscriptionCreated, EventSubscriptionUpdated:
		var sub stripe.Subscription
		if err := decodeEventObject(event, &sub); err != nil {
			return false, err
		}
		_, err := s.reconciler.Reconcile(ctx, dto.ReconcileRequest{SubscriptionId: sub.ID})
		return err == nil, err

	case EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := decodeEventObject(event, &sub); err != nil {
			return false, err
		}
		res, err := s.reconciler.ApplyCancellation(ctx, payment.FromStripeSubscription(&sub))
		return err == nil && res != nil, err

	case EventInvoicePaymentSucceeded, EventInvoicePaymentFailed:
		var invoice stripe.Invoice
		if err := decodeEventObject(event, &invoice); err != nil {
			return false, err
		}
		if invoice.Subscription == nil || invoice.Subscription.ID == "" {
			return false, nil
		}
		// The provider status already reflects the payment outcome; re-reading
		// it keeps the result independent of invoice and subscription event order.
		_, err := s.reconciler.Reconcile(ctx, dto.ReconcileRequest{SubscriptionId: invoice.Subscription.ID})
		return err == nil, err
	}

	return false, nil
}

func decodeEventObject(event *stripe.Event, v interface{}) error {
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return fmt.Errorf("event %s has no data object", event.ID)
	}
	if err := json.Unmarshal(event.Data.Raw, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", event.Type, err)
	}
	return nil
}

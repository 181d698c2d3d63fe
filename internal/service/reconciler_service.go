// FILE: internal/service/reconciler_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"billing-sync-be/internal/dto"
	"billing-sync-be/internal/entity"
	"billing-sync-be/internal/pkg/logger"
	"billing-sync-be/internal/pkg/retry"
	"billing-sync-be/internal/repository/specification"
	"billing-sync-be/internal/repository/unitofwork"
	"billing-sync-be/pkg/payment"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

type IReconcilerService interface {
	// Reconcile fetches the subscription from the provider and applies it.
	Reconcile(ctx context.Context, req dto.ReconcileRequest) (*dto.ReconcileResult, error)
	// ApplyCancellation applies a deletion event from its own payload.
	ApplyCancellation(ctx context.Context, sub *payment.Subscription) (*dto.ReconcileResult, error)
}

type reconcilerService struct {
	uowFactory   unitofwork.RepositoryFactory
	provider     payment.Provider
	roles        *RoleMapper
	queue        INotificationQueueService
	retrier      *retry.Retrier
	clock        clockwork.Clock
	logger       logger.ILogger
	storeTimeout time.Duration
}

func NewReconcilerService(
	uowFactory unitofwork.RepositoryFactory,
	provider payment.Provider,
	roles *RoleMapper,
	queue INotificationQueueService,
	retrier *retry.Retrier,
	clock clockwork.Clock,
	logger logger.ILogger,
	storeTimeout time.Duration,
) IReconcilerService {
	if storeTimeout <= 0 {
		storeTimeout = 10 * time.Second
	}
	return &reconcilerService{
		uowFactory:   uowFactory,
		provider:     provider,
		roles:        roles,
		queue:        queue,
		retrier:      retrier,
		clock:        clock,
		logger:       logger,
		storeTimeout: storeTimeout,
	}
}

// transition is the before/after view of one account, used to decide what
// the user should be told.
type transition struct {
	account      *entity.Account
	sub          *payment.Subscription
	record       *entity.SubscriptionRecord
	oldRole      entity.Role
	newRole      entity.Role
	oldStatus    entity.AccountSubscriptionStatus
	newStatus    entity.AccountSubscriptionStatus
	accountWrote bool
	// version is the account's last write before this one. It tells apart
	// repeats of the same role flip while racing applies of one flip agree.
	version int64
}

func (t *transition) roleChangeKey() string {
	return fmt.Sprintf("%s:%s>%s@%d", t.record.SubscriptionId, t.oldRole, t.newRole, t.version)
}

func (t *transition) roleChanged() bool {
	return t.accountWrote && t.oldRole != t.newRole
}

func (t *transition) activated() bool {
	return t.accountWrote &&
		(t.oldStatus == entity.AccountSubscriptionNone || t.oldStatus == entity.AccountSubscriptionCancelled) &&
		t.record.Status.IsLive()
}

func (t *transition) cancelled() bool {
	return t.accountWrote &&
		t.newStatus == entity.AccountSubscriptionCancelled &&
		t.oldStatus != entity.AccountSubscriptionCancelled
}

func (s *reconcilerService) Reconcile(ctx context.Context, req dto.ReconcileRequest) (*dto.ReconcileResult, error) {
	if req.SubscriptionId == "" {
		return nil, errors.New("subscription id is required")
	}

	sub, err := s.provider.GetSubscription(ctx, req.SubscriptionId)
	if err != nil {
		return nil, &dto.ProviderFetchError{
			Resource: "subscription",
			Id:       req.SubscriptionId,
			NotFound: payment.IsNotFound(err),
			Err:      err,
		}
	}

	planHint := sub.Metadata[payment.MetadataPlanType]
	if planHint == "" {
		planHint = req.PlanHint
	}

	t, err := s.apply(ctx, sub, req.AccountHint, planHint)
	if err != nil {
		return nil, err
	}
	s.announce(ctx, t, false)
	return t.result(), nil
}

func (s *reconcilerService) ApplyCancellation(ctx context.Context, sub *payment.Subscription) (*dto.ReconcileResult, error) {
	if sub == nil || sub.Id == "" {
		return nil, errors.New("subscription id is required")
	}

	cancelled := *sub
	cancelled.Status = string(entity.SubscriptionStatusCancelled)

	t, err := s.apply(ctx, &cancelled, "", "")
	if err != nil {
		var unresolved *dto.UnresolvedAccountError
		if errors.As(err, &unresolved) {
			// Nothing to downgrade. Keep the mirror row consistent if we have one.
			if markErr := s.markCancelled(ctx, sub.Id); markErr != nil {
				return nil, markErr
			}
			s.logger.Warn("RECONCILER", "Cancellation for unknown account acknowledged", map[string]interface{}{
				"subscription_id": sub.Id,
				"customer_id":     sub.CustomerId,
			})
			return nil, nil
		}
		return nil, err
	}
	s.announce(ctx, t, true)
	return t.result(), nil
}

func (s *reconcilerService) apply(ctx context.Context, sub *payment.Subscription, accountHint, planHint string) (*transition, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	account, err := s.resolveAccount(ctx, uow, sub, accountHint)
	if err != nil {
		return nil, err
	}

	status := subscriptionStatusFromProvider(sub.Status)
	targetRole := entity.RoleFree
	if status.IsLive() {
		targetRole = s.roles.Resolve(planHint, sub.PriceId)
	}

	record := &entity.SubscriptionRecord{
		SubscriptionId:    sub.Id,
		AccountId:         account.Id,
		CustomerId:        sub.CustomerId,
		PriceId:           sub.PriceId,
		PlanInterval:      planIntervalFromProvider(sub.Interval),
		Status:            status,
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if !sub.CurrentPeriodStart.IsZero() {
		start := sub.CurrentPeriodStart
		record.CurrentPeriodStart = &start
	}
	if !sub.CurrentPeriodEnd.IsZero() {
		end := sub.CurrentPeriodEnd
		record.CurrentPeriodEnd = &end
	}

	if err := s.withStore(ctx, func(ctx context.Context) error {
		return uow.SubscriptionRepository().Upsert(ctx, record)
	}); err != nil {
		return nil, err
	}

	t := &transition{
		account:   account,
		sub:       sub,
		record:    record,
		oldRole:   account.Role,
		newRole:   account.Role,
		oldStatus: account.SubscriptionStatus,
		newStatus: account.SubscriptionStatus,
		version:   account.UpdatedAt.UnixNano(),
	}

	// A dead subscription must not downgrade an account that has since moved
	// on to another one.
	if !status.IsLive() && account.SubscriptionId != nil && *account.SubscriptionId != sub.Id {
		s.logger.Info("RECONCILER", "Stale subscription recorded without touching account", map[string]interface{}{
			"account_id":      account.Id,
			"subscription_id": sub.Id,
			"current":         *account.SubscriptionId,
			"status":          status,
		})
		return t, nil
	}

	update := entity.AccountBillingUpdate{SubscriptionStatus: status.AccountStatus()}
	if account.CustomerId == nil && sub.CustomerId != "" {
		customerId := sub.CustomerId
		update.CustomerId = &customerId
	}
	if !account.IsAdmin() {
		update.Role = &targetRole
	}
	if status == entity.SubscriptionStatusCancelled {
		update.ClearSubscription = true
	} else {
		subscriptionId := sub.Id
		update.SubscriptionId = &subscriptionId
	}

	if err := s.withStore(ctx, func(ctx context.Context) error {
		return uow.AccountRepository().UpdateBilling(ctx, account.Id, update)
	}); err != nil {
		s.logger.Error("RECONCILER", "Account update failed after retries", map[string]interface{}{
			"account_id":      account.Id,
			"subscription_id": sub.Id,
			"error":           err.Error(),
		})
		return nil, err
	}

	t.accountWrote = true
	t.newStatus = update.SubscriptionStatus
	if update.Role != nil {
		t.newRole = *update.Role
	}
	if update.ClearSubscription {
		t.account.SubscriptionId = nil
	} else {
		t.account.SubscriptionId = update.SubscriptionId
	}
	if update.CustomerId != nil {
		t.account.CustomerId = update.CustomerId
	}

	s.logger.Info("RECONCILER", "Subscription reconciled", map[string]interface{}{
		"account_id":      account.Id,
		"subscription_id": sub.Id,
		"status":          status,
		"old_role":        t.oldRole,
		"new_role":        t.newRole,
		"admin":           account.IsAdmin(),
	})
	return t, nil
}

// resolveAccount prefers the account id carried in provider metadata, then the
// external customer id. The caller's hint only claims subscriptions neither of
// those links to an account.
func (s *reconcilerService) resolveAccount(ctx context.Context, uow unitofwork.UnitOfWork, sub *payment.Subscription, accountHint string) (*entity.Account, error) {
	if account, err := s.findAccountById(ctx, uow, sub.Metadata[payment.MetadataAccountId]); err != nil || account != nil {
		return account, err
	}

	if sub.CustomerId != "" {
		var account *entity.Account
		if err := s.withStore(ctx, func(ctx context.Context) error {
			var findErr error
			account, findErr = uow.AccountRepository().FindOne(ctx, specification.ByCustomerId{CustomerId: sub.CustomerId})
			return findErr
		}); err != nil {
			return nil, err
		}
		if account != nil {
			return account, nil
		}
	}

	if account, err := s.findAccountById(ctx, uow, accountHint); err != nil || account != nil {
		return account, err
	}

	return nil, &dto.UnresolvedAccountError{
		SubscriptionId: sub.Id,
		CustomerId:     sub.CustomerId,
		AccountHint:    accountHint,
	}
}

func (s *reconcilerService) findAccountById(ctx context.Context, uow unitofwork.UnitOfWork, raw string) (*entity.Account, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, nil
	}
	var account *entity.Account
	err = s.withStore(ctx, func(ctx context.Context) error {
		var findErr error
		account, findErr = uow.AccountRepository().FindOne(ctx, specification.ByID{ID: id})
		return findErr
	})
	return account, err
}

func (s *reconcilerService) markCancelled(ctx context.Context, subscriptionId string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return s.withStore(ctx, func(ctx context.Context) error {
		return uow.SubscriptionRepository().MarkCancelled(ctx, subscriptionId)
	})
}

// withStore runs one store call under the store timeout and the bounded
// retry policy.
func (s *reconcilerService) withStore(ctx context.Context, op func(ctx context.Context) error) error {
	return s.retrier.Do(ctx, func(ctx context.Context) error {
		storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
		defer cancel()
		return op(storeCtx)
	})
}

// announce enqueues at most one notification for the transition and records
// the matching billing events. Failures are logged and never undo the write.
func (s *reconcilerService) announce(ctx context.Context, t *transition, deleted bool) {
	if !t.accountWrote {
		return
	}

	planName := s.roles.PlanName(t.record.PriceId)
	subId := t.record.SubscriptionId
	now := s.clock.Now()

	var events []*entity.OutboxEvent
	newEvent := func(eventType, key string, payload map[string]interface{}) {
		payload["accountId"] = t.account.Id.String()
		payload["subscriptionId"] = subId
		events = append(events, &entity.OutboxEvent{
			// Racing reconciliations of one transition derive the same id.
			Id:        uuid.NewSHA1(uuid.NameSpaceOID, []byte(eventType+"|"+key)),
			EventType: eventType,
			AccountId: t.account.Id,
			Payload:   payload,
			CreatedAt: now,
		})
	}
	if t.roleChanged() {
		newEvent(entity.BillingEventRoleChanged, t.roleChangeKey(), map[string]interface{}{
			"oldRole": string(t.oldRole),
			"newRole": string(t.newRole),
		})
	}
	if t.activated() {
		newEvent(entity.BillingEventSubscriptionActivated, subId, map[string]interface{}{
			"priceId": t.record.PriceId,
			"status":  string(t.record.Status),
		})
	}
	if t.cancelled() {
		newEvent(entity.BillingEventSubscriptionCancelled, subId, map[string]interface{}{
			"priceId": t.record.PriceId,
		})
	}
	s.appendEvents(ctx, events)

	if t.account.Email == "" {
		return
	}
	accountId := t.account.Id
	item := &entity.NotificationQueueItem{
		AccountId: &accountId,
		Recipient: t.account.Email,
	}
	switch {
	case deleted || t.cancelled():
		item.Kind = entity.NotificationKindSubscriptionCancelled
		item.DedupeKey = "cancelled:" + subId
		item.Payload = map[string]interface{}{
			"name":             t.account.FullName,
			"planName":         planName,
			"cancellationDate": now.Format("January 2, 2006"),
		}
	case t.roleChanged():
		item.Kind = entity.NotificationKindRoleChange
		item.DedupeKey = t.roleChangeKey()
		item.Payload = map[string]interface{}{
			"name":    t.account.FullName,
			"oldRole": string(t.oldRole),
			"newRole": string(t.newRole),
		}
	case t.activated():
		item.Kind = entity.NotificationKindPayment
		item.DedupeKey = "activated:" + subId
		item.Payload = map[string]interface{}{
			"name":     t.account.FullName,
			"planName": planName,
		}
	default:
		return
	}

	if _, err := s.queue.Enqueue(ctx, item); err != nil {
		s.logger.Error("RECONCILER", "Failed to enqueue notification", map[string]interface{}{
			"account_id": t.account.Id,
			"kind":       item.Kind,
			"error":      err.Error(),
		})
	}
}

func (s *reconcilerService) appendEvents(ctx context.Context, events []*entity.OutboxEvent) {
	if len(events) == 0 {
		return
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	for _, event := range events {
		if err := uow.OutboxRepository().Append(ctx, event); err != nil {
			s.logger.Error("RECONCILER", "Failed to append billing event", map[string]interface{}{
				"event_type": event.EventType,
				"account_id": event.AccountId,
				"error":      err.Error(),
			})
		}
	}
}

func (t *transition) result() *dto.ReconcileResult {
	return &dto.ReconcileResult{
		AccountId:          t.account.Id,
		Role:               string(t.newRole),
		SubscriptionStatus: string(t.newStatus),
		SubscriptionId:     t.account.SubscriptionId,
		RoleChanged:        t.roleChanged(),
	}
}

// subscriptionStatusFromProvider maps the provider lifecycle onto the stored
// set. Expired incomplete checkouts count as cancelled; anything unknown is
// treated as not yet paid.
func subscriptionStatusFromProvider(status string) entity.SubscriptionStatus {
	switch status {
	case "active":
		return entity.SubscriptionStatusActive
	case "trialing":
		return entity.SubscriptionStatusTrialing
	case "past_due":
		return entity.SubscriptionStatusPastDue
	case "unpaid":
		return entity.SubscriptionStatusUnpaid
	case "canceled", "cancelled", "incomplete_expired":
		return entity.SubscriptionStatusCancelled
	}
	return entity.SubscriptionStatusIncomplete
}

func planIntervalFromProvider(interval string) entity.PlanInterval {
	if interval == "year" {
		return entity.PlanIntervalYearly
	}
	return entity.PlanIntervalMonthly
}

// FILE: internal/service/renewal_reminder_service.go
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"billing-sync-be/internal/entity"
	"billing-sync-be/internal/pkg/logger"
	"billing-sync-be/internal/repository/specification"
	"billing-sync-be/internal/repository/unitofwork"

	"github.com/jonboulle/clockwork"
)

type IRenewalReminderService interface {
	// Run queues a reminder for each live subscription renewing within the
	// lead time. Each billing period is reminded once.
	Run(ctx context.Context) (int, error)
}

type renewalReminderService struct {
	uowFactory unitofwork.RepositoryFactory
	queue      INotificationQueueService
	roles      *RoleMapper
	clock      clockwork.Clock
	logger     logger.ILogger
	leadTime   time.Duration
	manageURL  string
}

func NewRenewalReminderService(
	uowFactory unitofwork.RepositoryFactory,
	queue INotificationQueueService,
	roles *RoleMapper,
	clock clockwork.Clock,
	logger logger.ILogger,
	leadTime time.Duration,
	clientURL string,
) IRenewalReminderService {
	return &renewalReminderService{
		uowFactory: uowFactory,
		queue:      queue,
		roles:      roles,
		clock:      clock,
		logger:     logger,
		leadTime:   leadTime,
		manageURL:  strings.TrimRight(clientURL, "/") + "/dashboard",
	}
}

func (s *renewalReminderService) Run(ctx context.Context) (int, error) {
	now := s.clock.Now()
	uow := s.uowFactory.NewUnitOfWork(ctx)

	records, err := uow.SubscriptionRepository().FindAll(ctx,
		specification.LiveSubscriptions{},
		specification.PeriodEndingBetween{From: now, To: now.Add(s.leadTime)},
	)
	if err != nil {
		return 0, err
	}

	queued := 0
	for _, record := range records {
		// Subscriptions set to lapse do not renew.
		if record.CancelAtPeriodEnd || record.CurrentPeriodEnd == nil {
			continue
		}

		account, err := uow.AccountRepository().FindOne(ctx, specification.ByID{ID: record.AccountId})
		if err != nil {
			return queued, err
		}
		if account == nil || account.Email == "" {
			continue
		}
		if account.SubscriptionId == nil || *account.SubscriptionId != record.SubscriptionId {
			continue
		}

		accountId := account.Id
		inserted, err := s.queue.Enqueue(ctx, &entity.NotificationQueueItem{
			AccountId: &accountId,
			Recipient: account.Email,
			Kind:      entity.NotificationKindRenewalReminder,
			DedupeKey: fmt.Sprintf("renewal:%s:%d", record.SubscriptionId, record.CurrentPeriodEnd.Unix()),
			Payload: map[string]interface{}{
				"name":        account.FullName,
				"planName":    s.roles.PlanName(record.PriceId),
				"renewalDate": record.CurrentPeriodEnd.Format("January 2, 2006"),
				"manageURL":   s.manageURL,
			},
		})
		if err != nil {
			s.logger.Error("REMINDER", "Failed to enqueue renewal reminder", map[string]interface{}{
				"account_id":      account.Id,
				"subscription_id": record.SubscriptionId,
				"error":           err.Error(),
			})
			continue
		}
		if inserted {
			queued++
		}
	}

	if queued > 0 {
		s.logger.Info("REMINDER", "Renewal reminders queued", map[string]interface{}{"count": queued})
	}
	return queued, nil
}

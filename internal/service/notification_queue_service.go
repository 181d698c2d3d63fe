// FILE: internal/service/notification_queue_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"billing-sync-be/internal/dto"
	"billing-sync-be/internal/entity"
	"billing-sync-be/internal/pkg/logger"
	"billing-sync-be/internal/pkg/mailer"
	"billing-sync-be/internal/repository/specification"
	"billing-sync-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

var ErrNotificationNotFound = errors.New("notification not found")

// QueueKicker nudges the worker after an enqueue so delivery does not wait
// for the next scheduled sweep.
type QueueKicker interface {
	Kick(ctx context.Context)
}

type INotificationQueueService interface {
	// Enqueue persists a pending item. Duplicates by recipient, kind and
	// dedupe key are dropped silently.
	Enqueue(ctx context.Context, item *entity.NotificationQueueItem) (bool, error)
	// Sweep claims and delivers one batch.
	Sweep(ctx context.Context) (*dto.SweepResult, error)
	List(ctx context.Context, status string, limit int) ([]*dto.NotificationItemResponse, error)
	Requeue(ctx context.Context, id uuid.UUID) error
}

type NotificationQueueOptions struct {
	BatchSize  int
	StaleAfter time.Duration
	// SendTimeout bounds one delivery.
	SendTimeout time.Duration
}

type notificationQueueService struct {
	uowFactory unitofwork.RepositoryFactory
	renderer   INotificationRenderer
	transport  mailer.IMailTransport
	kicker     QueueKicker
	clock      clockwork.Clock
	logger     logger.ILogger
	opts       NotificationQueueOptions

	sweeping sync.Mutex
}

func NewNotificationQueueService(
	uowFactory unitofwork.RepositoryFactory,
	renderer INotificationRenderer,
	transport mailer.IMailTransport,
	kicker QueueKicker,
	clock clockwork.Clock,
	logger logger.ILogger,
	opts NotificationQueueOptions,
) INotificationQueueService {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 10
	}
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = 10 * time.Minute
	}
	if opts.SendTimeout < mailer.MinSendTimeout {
		opts.SendTimeout = mailer.MinSendTimeout
	}
	// A claim released while its send is still in flight would be sent twice.
	if opts.StaleAfter < 2*opts.SendTimeout {
		opts.StaleAfter = 2 * opts.SendTimeout
	}
	return &notificationQueueService{
		uowFactory: uowFactory,
		renderer:   renderer,
		transport:  transport,
		kicker:     kicker,
		clock:      clock,
		logger:     logger,
		opts:       opts,
	}
}

func (s *notificationQueueService) Enqueue(ctx context.Context, item *entity.NotificationQueueItem) (bool, error) {
	if item.Recipient == "" {
		return false, fmt.Errorf("notification %s has no recipient", item.Kind)
	}
	if item.Id == uuid.Nil {
		item.Id = uuid.New()
	}
	if item.DedupeKey == "" {
		item.DedupeKey = item.Id.String()
	}
	if item.MaxAttempts <= 0 {
		item.MaxAttempts = entity.DefaultMaxAttempts
	}
	item.Status = entity.NotificationStatusPending
	item.Attempts = 0
	now := s.clock.Now()
	item.CreatedAt = now
	item.UpdatedAt = now

	uow := s.uowFactory.NewUnitOfWork(ctx)
	inserted, err := uow.NotificationQueueRepository().Enqueue(ctx, item)
	if err != nil {
		return false, err
	}
	if !inserted {
		s.logger.Debug("QUEUE", "Duplicate notification dropped", map[string]interface{}{
			"kind":       item.Kind,
			"recipient":  item.Recipient,
			"dedupe_key": item.DedupeKey,
		})
		return false, nil
	}

	s.logger.Info("QUEUE", "Notification enqueued", map[string]interface{}{
		"id":        item.Id,
		"kind":      item.Kind,
		"recipient": item.Recipient,
	})
	if s.kicker != nil {
		s.kicker.Kick(ctx)
	}
	return true, nil
}

func (s *notificationQueueService) Sweep(ctx context.Context) (*dto.SweepResult, error) {
	result := &dto.SweepResult{}
	// Concurrent sweeps across processes are safe through row claiming; this
	// only keeps the scheduler and the kick consumer from overlapping here.
	if !s.sweeping.TryLock() {
		return result, nil
	}
	defer s.sweeping.Unlock()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.NotificationQueueRepository()

	released, err := repo.ReleaseStale(ctx, s.clock.Now().Add(-s.opts.StaleAfter))
	if err != nil {
		return result, err
	}
	if released > 0 {
		s.logger.Warn("QUEUE", "Released stale processing items", map[string]interface{}{"count": released})
	}

	items, err := repo.ClaimPending(ctx, s.opts.BatchSize)
	if err != nil {
		return result, err
	}
	result.Claimed = len(items)

	for _, item := range items {
		subject, deliverErr := s.deliver(ctx, item)
		if deliverErr == nil {
			if err := repo.MarkSent(ctx, item.Id, subject, s.clock.Now()); err != nil {
				return result, err
			}
			result.Sent++
			continue
		}

		if item.CanRetry() {
			if err := repo.MarkRetry(ctx, item.Id, deliverErr.Error()); err != nil {
				return result, err
			}
			result.Retried++
			s.logger.Warn("QUEUE", "Delivery failed, will retry", map[string]interface{}{
				"id":       item.Id,
				"attempts": item.Attempts,
				"error":    deliverErr.Error(),
			})
			continue
		}

		if err := repo.MarkFailed(ctx, item.Id, deliverErr.Error()); err != nil {
			return result, err
		}
		result.Failed++
		s.logger.Error("QUEUE", "Delivery failed permanently", map[string]interface{}{
			"id":        item.Id,
			"kind":      item.Kind,
			"recipient": item.Recipient,
			"attempts":  item.Attempts,
			"error":     deliverErr.Error(),
		})
	}

	if result.Claimed > 0 {
		s.logger.Info("QUEUE", "Sweep finished", map[string]interface{}{
			"claimed": result.Claimed,
			"sent":    result.Sent,
			"retried": result.Retried,
			"failed":  result.Failed,
		})
	}
	return result, nil
}

func (s *notificationQueueService) deliver(ctx context.Context, item *entity.NotificationQueueItem) (string, error) {
	subject, body, err := s.renderer.Render(item.Kind, item.Payload)
	if err != nil {
		return "", &dto.DeliveryFailure{ItemId: item.Id.String(), Recipient: item.Recipient, Err: err}
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.opts.SendTimeout)
	defer cancel()
	if err := s.transport.Send(sendCtx, item.Recipient, subject, body); err != nil {
		return "", &dto.DeliveryFailure{ItemId: item.Id.String(), Recipient: item.Recipient, Err: err}
	}
	return subject, nil
}

func (s *notificationQueueService) List(ctx context.Context, status string, limit int) ([]*dto.NotificationItemResponse, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	specs := []specification.Specification{
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit},
	}
	if status != "" {
		specs = append(specs, specification.ByStatus{Status: status})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	items, err := uow.NotificationQueueRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.NotificationItemResponse, 0, len(items))
	for _, item := range items {
		res = append(res, &dto.NotificationItemResponse{
			Id:          item.Id,
			Recipient:   item.Recipient,
			Kind:        string(item.Kind),
			Status:      string(item.Status),
			Attempts:    item.Attempts,
			MaxAttempts: item.MaxAttempts,
			LastError:   item.LastError,
			Payload:     item.Payload,
			CreatedAt:   item.CreatedAt,
			SentAt:      item.SentAt,
		})
	}
	return res, nil
}

func (s *notificationQueueService) Requeue(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	item, err := uow.NotificationQueueRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if item == nil {
		return ErrNotificationNotFound
	}
	if item.Status != entity.NotificationStatusFailed {
		return fmt.Errorf("notification %s is %s, only failed items can be requeued", id, item.Status)
	}
	if err := uow.NotificationQueueRepository().Requeue(ctx, id); err != nil {
		return err
	}

	s.logger.Info("QUEUE", "Notification requeued", map[string]interface{}{"id": id})
	if s.kicker != nil {
		s.kicker.Kick(ctx)
	}
	return nil
}

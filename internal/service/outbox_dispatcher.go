// FILE: internal/service/outbox_dispatcher.go
package service

import (
	"context"

	"billing-sync-be/internal/pkg/logger"
	"billing-sync-be/internal/repository/unitofwork"
	"billing-sync-be/pkg/events"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// EventPublisher is satisfied by the NATS JetStream publisher.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type IOutboxDispatcher interface {
	// Flush publishes one batch of unprocessed billing events.
	Flush(ctx context.Context) (int, error)
}

type outboxDispatcher struct {
	uowFactory unitofwork.RepositoryFactory
	publisher  EventPublisher
	clock      clockwork.Clock
	logger     logger.ILogger
	batchSize  int
}

func NewOutboxDispatcher(
	uowFactory unitofwork.RepositoryFactory,
	publisher EventPublisher,
	clock clockwork.Clock,
	logger logger.ILogger,
	batchSize int,
) IOutboxDispatcher {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &outboxDispatcher{
		uowFactory: uowFactory,
		publisher:  publisher,
		clock:      clock,
		logger:     logger,
		batchSize:  batchSize,
	}
}

func (d *outboxDispatcher) Flush(ctx context.Context) (int, error) {
	uow := d.uowFactory.NewUnitOfWork(ctx)
	repo := uow.OutboxRepository()

	pending, err := repo.FetchUnprocessed(ctx, d.batchSize)
	if err != nil {
		return 0, err
	}

	published := make([]uuid.UUID, 0, len(pending))
	for _, event := range pending {
		err := d.publisher.Publish(ctx, events.BaseEvent{
			ID:         event.Id.String(),
			Type:       event.EventType,
			Data:       event.Payload,
			OccurredAt: event.CreatedAt,
		})
		if err != nil {
			d.logger.Warn("OUTBOX", "Failed to publish billing event", map[string]interface{}{
				"event_id":   event.Id,
				"event_type": event.EventType,
				"error":      err.Error(),
			})
			if markErr := repo.MarkFailed(ctx, event.Id, err.Error()); markErr != nil {
				return len(published), markErr
			}
			continue
		}
		published = append(published, event.Id)
	}

	if err := repo.MarkProcessed(ctx, published, d.clock.Now()); err != nil {
		return 0, err
	}
	if len(published) > 0 {
		d.logger.Info("OUTBOX", "Billing events published", map[string]interface{}{"count": len(published)})
	}
	return len(published), nil
}

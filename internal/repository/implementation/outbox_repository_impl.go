package implementation

import (
	"context"
	"fmt"
	"time"

	"billing-sync-be/internal/entity"
	"billing-sync-be/internal/mapper"
	"billing-sync-be/internal/model"
	"billing-sync-be/internal/repository/contract"
	"billing-sync-be/internal/repository/scope"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OutboxRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.NotificationMapper
}

func NewOutboxRepository(db *gorm.DB) contract.OutboxRepository {
	return &OutboxRepositoryImpl{
		db:     db,
		mapper: mapper.NewNotificationMapper(),
	}
}

// Append ignores an event whose id is already stored, so callers deriving ids
// from the transition record it once.
func (r *OutboxRepositoryImpl) Append(ctx context.Context, event *entity.OutboxEvent) error {
	m, err := r.mapper.OutboxToModel(event)
	if err != nil {
		return fmt.Errorf("encode outbox payload: %w", err)
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(m).Error; err != nil {
		return storeError("append outbox event", err)
	}
	return nil
}

func (r *OutboxRepositoryImpl) FetchUnprocessed(ctx context.Context, limit int) ([]*entity.OutboxEvent, error) {
	var models []*model.OutboxEvent
	err := r.db.WithContext(ctx).
		Scopes(scope.Unprocessed, scope.OrderByCreatedAsc).
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, storeError("fetch outbox events", err)
	}
	events := make([]*entity.OutboxEvent, len(models))
	for i, m := range models {
		events[i] = r.mapper.OutboxToEntity(m)
	}
	return events, nil
}

func (r *OutboxRepositoryImpl) MarkProcessed(ctx context.Context, ids []uuid.UUID, processedAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Model(&model.OutboxEvent{}).
		Where("id IN ?", ids).
		Update("processed_at", processedAt).Error
	return storeError("mark outbox processed", err)
}

func (r *OutboxRepositoryImpl) MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error {
	err := r.db.WithContext(ctx).Model(&model.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": lastError,
		}).Error
	return storeError("mark outbox failed", err)
}

package implementation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"billing-sync-be/internal/entity"
	"billing-sync-be/internal/mapper"
	"billing-sync-be/internal/model"
	"billing-sync-be/internal/repository/contract"
	"billing-sync-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SKIP LOCKED lets overlapping sweeps claim disjoint batches.
const claimPendingSQL = `
UPDATE notification_queue
SET status = 'processing', attempts = attempts + 1, updated_at = NOW()
WHERE id IN (
	SELECT id FROM notification_queue
	WHERE status = 'pending' AND attempts < max_attempts
	ORDER BY created_at ASC
	LIMIT ?
	FOR UPDATE SKIP LOCKED
)
RETURNING *`

type NotificationQueueRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.NotificationMapper
}

func NewNotificationQueueRepository(db *gorm.DB) contract.NotificationQueueRepository {
	return &NotificationQueueRepositoryImpl{
		db:     db,
		mapper: mapper.NewNotificationMapper(),
	}
}

func (r *NotificationQueueRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *NotificationQueueRepositoryImpl) Enqueue(ctx context.Context, item *entity.NotificationQueueItem) (bool, error) {
	if item.MaxAttempts <= 0 {
		item.MaxAttempts = entity.DefaultMaxAttempts
	}
	if item.Status == "" {
		item.Status = entity.NotificationStatusPending
	}
	m, err := r.mapper.ToModel(item)
	if err != nil {
		return false, fmt.Errorf("encode notification payload: %w", err)
	}

	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "recipient"}, {Name: "kind"}, {Name: "dedupe_key"}},
		DoNothing: true,
	}).Create(m)
	if res.Error != nil {
		return false, storeError("enqueue notification", res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	*item = *r.mapper.ToEntity(m)
	return true, nil
}

func (r *NotificationQueueRepositoryImpl) ClaimPending(ctx context.Context, limit int) ([]*entity.NotificationQueueItem, error) {
	var models []*model.NotificationQueueItem
	if err := r.db.WithContext(ctx).Raw(claimPendingSQL, limit).Scan(&models).Error; err != nil {
		return nil, storeError("claim notifications", err)
	}
	sort.Slice(models, func(i, j int) bool {
		return models[i].CreatedAt.Before(models[j].CreatedAt)
	})
	items := make([]*entity.NotificationQueueItem, len(models))
	for i, m := range models {
		items[i] = r.mapper.ToEntity(m)
	}
	return items, nil
}

func (r *NotificationQueueRepositoryImpl) ReleaseStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.NotificationQueueItem{}).
		Where("status = ? AND updated_at < ?", string(entity.NotificationStatusProcessing), cutoff).
		Updates(map[string]interface{}{
			"status": gorm.Expr("CASE WHEN attempts >= max_attempts THEN ? ELSE ? END",
				string(entity.NotificationStatusFailed), string(entity.NotificationStatusPending)),
			"last_error": "delivery interrupted before completion",
		})
	if res.Error != nil {
		return 0, storeError("release stale notifications", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *NotificationQueueRepositoryImpl) MarkSent(ctx context.Context, id uuid.UUID, subject string, sentAt time.Time) error {
	return r.transition(ctx, "mark notification sent", id, entity.NotificationStatusProcessing, map[string]interface{}{
		"status":     string(entity.NotificationStatusSent),
		"subject":    subject,
		"sent_at":    sentAt,
		"last_error": nil,
	})
}

func (r *NotificationQueueRepositoryImpl) MarkRetry(ctx context.Context, id uuid.UUID, lastError string) error {
	return r.transition(ctx, "mark notification retry", id, entity.NotificationStatusProcessing, map[string]interface{}{
		"status":     string(entity.NotificationStatusPending),
		"last_error": lastError,
	})
}

func (r *NotificationQueueRepositoryImpl) MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error {
	return r.transition(ctx, "mark notification failed", id, entity.NotificationStatusProcessing, map[string]interface{}{
		"status":     string(entity.NotificationStatusFailed),
		"last_error": lastError,
	})
}

func (r *NotificationQueueRepositoryImpl) Requeue(ctx context.Context, id uuid.UUID) error {
	return r.transition(ctx, "requeue notification", id, entity.NotificationStatusFailed, map[string]interface{}{
		"status":   string(entity.NotificationStatusPending),
		"attempts": 0,
	})
}

// transition applies updates only while the row is still in the expected
// state, so a sent item can never be rewritten.
func (r *NotificationQueueRepositoryImpl) transition(ctx context.Context, op string, id uuid.UUID, from entity.NotificationStatus, updates map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&model.NotificationQueueItem{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(updates)
	if res.Error != nil {
		return storeError(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: item %s is not %s", op, id, from)
	}
	return nil
}

func (r *NotificationQueueRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.NotificationQueueItem, error) {
	var m model.NotificationQueueItem
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storeError("find notification", err)
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *NotificationQueueRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.NotificationQueueItem, error) {
	var models []*model.NotificationQueueItem
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, storeError("list notifications", err)
	}
	items := make([]*entity.NotificationQueueItem, len(models))
	for i, m := range models {
		items[i] = r.mapper.ToEntity(m)
	}
	return items, nil
}

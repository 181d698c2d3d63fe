package implementation

import (
	"context"
	"errors"

	"billing-sync-be/internal/entity"
	"billing-sync-be/internal/mapper"
	"billing-sync-be/internal/model"
	"billing-sync-be/internal/repository/contract"
	"billing-sync-be/internal/repository/scope"
	"billing-sync-be/internal/repository/specification"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SubscriptionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SubscriptionMapper
}

func NewSubscriptionRepository(db *gorm.DB) contract.SubscriptionRepository {
	return &SubscriptionRepositoryImpl{
		db:     db,
		mapper: mapper.NewSubscriptionMapper(),
	}
}

func (r *SubscriptionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *SubscriptionRepositoryImpl) Upsert(ctx context.Context, record *entity.SubscriptionRecord) error {
	m := r.mapper.ToModel(record)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "subscription_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"account_id",
				"customer_id",
				"price_id",
				"plan_interval",
				"status",
				"cancel_at_period_end",
				"current_period_start",
				"current_period_end",
				"updated_at",
			}),
		}).Create(m).Error
		if err != nil {
			return err
		}

		if record.Status.IsLive() {
			err = tx.Model(&model.SubscriptionRecord{}).
				Where("account_id = ? AND subscription_id <> ?", m.AccountId, m.SubscriptionId).
				Scopes(scope.LiveSubscriptions).
				Update("status", string(entity.SubscriptionStatusCancelled)).Error
			if err != nil {
				return err
			}
		}

		return tx.Where("subscription_id = ?", m.SubscriptionId).First(m).Error
	})
	if err != nil {
		return storeError("upsert subscription", err)
	}

	*record = *r.mapper.ToEntity(m)
	return nil
}

func (r *SubscriptionRepositoryImpl) MarkCancelled(ctx context.Context, subscriptionId string) error {
	err := r.db.WithContext(ctx).Model(&model.SubscriptionRecord{}).
		Where("subscription_id = ?", subscriptionId).
		Update("status", string(entity.SubscriptionStatusCancelled)).Error
	return storeError("cancel subscription", err)
}

func (r *SubscriptionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.SubscriptionRecord, error) {
	var m model.SubscriptionRecord
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storeError("find subscription", err)
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *SubscriptionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.SubscriptionRecord, error) {
	var models []*model.SubscriptionRecord
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, storeError("list subscriptions", err)
	}
	entities := make([]*entity.SubscriptionRecord, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *SubscriptionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.SubscriptionRecord{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, storeError("count subscriptions", err)
	}
	return count, nil
}

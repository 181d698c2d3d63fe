package implementation

import (
	"context"
	"errors"
	"time"

	"billing-sync-be/internal/dto"
	"billing-sync-be/internal/entity"
	"billing-sync-be/internal/mapper"
	"billing-sync-be/internal/model"
	"billing-sync-be/internal/repository/contract"
	"billing-sync-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AccountRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.AccountMapper
}

func NewAccountRepository(db *gorm.DB) contract.AccountRepository {
	return &AccountRepositoryImpl{
		db:     db,
		mapper: mapper.NewAccountMapper(),
	}
}

func (r *AccountRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *AccountRepositoryImpl) Create(ctx context.Context, account *entity.Account) error {
	m := r.mapper.ToModel(account)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return storeError("create account", err)
	}
	*account = *r.mapper.ToEntity(m)
	return nil
}

func (r *AccountRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Account, error) {
	var m model.Account
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storeError("find account", err)
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *AccountRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Account, error) {
	var models []*model.Account
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, storeError("list accounts", err)
	}
	entities := make([]*entity.Account, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *AccountRepositoryImpl) UpdateBilling(ctx context.Context, id uuid.UUID, update entity.AccountBillingUpdate) error {
	updates := map[string]interface{}{
		"subscription_status": string(update.SubscriptionStatus),
		"updated_at":          time.Now(),
	}
	if update.CustomerId != nil {
		updates["customer_id"] = *update.CustomerId
	}
	if update.ClearSubscription {
		updates["subscription_id"] = nil
	} else if update.SubscriptionId != nil {
		updates["subscription_id"] = *update.SubscriptionId
	}
	if update.Role != nil {
		// Evaluated against the row being written so a concurrent promotion to
		// Admin is never overwritten.
		updates["role"] = gorm.Expr("CASE WHEN role = ? THEN role ELSE ? END", string(entity.RoleAdmin), string(*update.Role))
	}

	res := r.db.WithContext(ctx).Model(&model.Account{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return storeError("update account billing", res.Error)
	}
	if res.RowsAffected == 0 {
		return dto.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepositoryImpl) SetCustomerId(ctx context.Context, id uuid.UUID, customerId string) error {
	res := r.db.WithContext(ctx).Model(&model.Account{}).Where("id = ?", id).Update("customer_id", customerId)
	if res.Error != nil {
		return storeError("set customer id", res.Error)
	}
	if res.RowsAffected == 0 {
		return dto.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepositoryImpl) SetRole(ctx context.Context, id uuid.UUID, role entity.Role) error {
	res := r.db.WithContext(ctx).Model(&model.Account{}).Where("id = ?", id).Update("role", string(role))
	if res.Error != nil {
		return storeError("set role", res.Error)
	}
	if res.RowsAffected == 0 {
		return dto.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Account{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, storeError("count accounts", err)
	}
	return count, nil
}

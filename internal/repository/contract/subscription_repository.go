package contract

import (
	"context"

	"billing-sync-be/internal/entity"
	"billing-sync-be/internal/repository/specification"
)

type SubscriptionRepository interface {
	// Upsert is keyed on the provider subscription id. A live record retires
	// every other live record of the same account.
	Upsert(ctx context.Context, record *entity.SubscriptionRecord) error
	MarkCancelled(ctx context.Context, subscriptionId string) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.SubscriptionRecord, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.SubscriptionRecord, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}

package unitofwork

import (
	"context"

	"billing-sync-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	AccountRepository() contract.AccountRepository
	SubscriptionRepository() contract.SubscriptionRepository
	NotificationQueueRepository() contract.NotificationQueueRepository
	OutboxRepository() contract.OutboxRepository
}

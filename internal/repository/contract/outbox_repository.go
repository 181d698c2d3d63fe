package contract

import (
	"context"
	"time"

	"billing-sync-be/internal/entity"

	"github.com/google/uuid"
)

type OutboxRepository interface {
	Append(ctx context.Context, event *entity.OutboxEvent) error
	FetchUnprocessed(ctx context.Context, limit int) ([]*entity.OutboxEvent, error)
	MarkProcessed(ctx context.Context, ids []uuid.UUID, processedAt time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error
}

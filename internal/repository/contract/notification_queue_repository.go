package contract

import (
	"context"
	"time"

	"billing-sync-be/internal/entity"
	"billing-sync-be/internal/repository/specification"

	"github.com/google/uuid"
)

type NotificationQueueRepository interface {
	// Enqueue inserts the item unless one with the same recipient, kind and
	// dedupe key exists. It reports whether a row was inserted.
	Enqueue(ctx context.Context, item *entity.NotificationQueueItem) (bool, error)

	// ClaimPending atomically moves up to limit pending items to processing,
	// incrementing attempts, and returns them oldest first.
	ClaimPending(ctx context.Context, limit int) ([]*entity.NotificationQueueItem, error)
	// ReleaseStale returns items stuck in processing since before cutoff to
	// pending, or to failed when their attempts are exhausted.
	ReleaseStale(ctx context.Context, cutoff time.Time) (int64, error)

	MarkSent(ctx context.Context, id uuid.UUID, subject string, sentAt time.Time) error
	MarkRetry(ctx context.Context, id uuid.UUID, lastError string) error
	MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error
	// Requeue gives a terminally failed item a fresh attempt budget.
	Requeue(ctx context.Context, id uuid.UUID) error

	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.NotificationQueueItem, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.NotificationQueueItem, error)
}

package contract

import (
	"context"

	"billing-sync-be/internal/entity"
	"billing-sync-be/internal/repository/specification"

	"github.com/google/uuid"
)

type AccountRepository interface {
	Create(ctx context.Context, account *entity.Account) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Account, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Account, error)

	// UpdateBilling writes the billing fields in a single statement. The role
	// column is left untouched when the stored role is Admin.
	UpdateBilling(ctx context.Context, id uuid.UUID, update entity.AccountBillingUpdate) error
	SetCustomerId(ctx context.Context, id uuid.UUID, customerId string) error
	// SetRole is the explicit administrative override and ignores Admin protection.
	SetRole(ctx context.Context, id uuid.UUID, role entity.Role) error
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}

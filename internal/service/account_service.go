// FILE: internal/service/account_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"billing-sync-be/internal/dto"
	"billing-sync-be/internal/entity"
	"billing-sync-be/internal/pkg/logger"
	"billing-sync-be/internal/repository/specification"
	"billing-sync-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

var ErrEmailTaken = errors.New("email already registered")

type IAccountService interface {
	// Provision creates a Free account and queues the welcome notification in
	// the same transaction.
	Provision(ctx context.Context, req *dto.CreateAccountRequest) (*dto.AccountResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.AccountResponse, error)
	// SetRole is the explicit administrative override. It is the only path
	// allowed to grant or remove Admin.
	SetRole(ctx context.Context, id uuid.UUID, role entity.Role) (*dto.AccountResponse, error)
}

type accountService struct {
	uowFactory unitofwork.RepositoryFactory
	queue      INotificationQueueService
	kicker     QueueKicker
	clock      clockwork.Clock
	logger     logger.ILogger
}

func NewAccountService(
	uowFactory unitofwork.RepositoryFactory,
	queue INotificationQueueService,
	kicker QueueKicker,
	clock clockwork.Clock,
	logger logger.ILogger,
) IAccountService {
	return &accountService{
		uowFactory: uowFactory,
		queue:      queue,
		kicker:     kicker,
		clock:      clock,
		logger:     logger,
	}
}

func (s *accountService) Provision(ctx context.Context, req *dto.CreateAccountRequest) (*dto.AccountResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	uow := s.uowFactory.NewUnitOfWork(ctx)
	existing, err := uow.AccountRepository().FindOne(ctx, specification.ByEmail{Email: email})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	now := s.clock.Now()
	account := &entity.Account{
		Id:                 uuid.New(),
		Email:              email,
		FullName:           req.FullName,
		Role:               entity.RoleFree,
		SubscriptionStatus: entity.AccountSubscriptionNone,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	item := &entity.NotificationQueueItem{
		Id:          uuid.New(),
		AccountId:   &account.Id,
		Recipient:   email,
		Kind:        entity.NotificationKindSignUp,
		DedupeKey:   "signup:" + account.Id.String(),
		Payload:     map[string]interface{}{"name": req.FullName, "email": email},
		Status:      entity.NotificationStatusPending,
		MaxAttempts: entity.DefaultMaxAttempts,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.AccountRepository().Create(ctx, account); err != nil {
		return nil, err
	}
	if _, err := uow.NotificationQueueRepository().Enqueue(ctx, item); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("ACCOUNT", "Account provisioned", map[string]interface{}{
		"account_id": account.Id,
		"email":      email,
	})
	if s.kicker != nil {
		s.kicker.Kick(ctx)
	}
	return toAccountResponse(account), nil
}

func (s *accountService) Get(ctx context.Context, id uuid.UUID) (*dto.AccountResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	account, err := uow.AccountRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, dto.ErrAccountNotFound
	}
	return toAccountResponse(account), nil
}

func (s *accountService) SetRole(ctx context.Context, id uuid.UUID, role entity.Role) (*dto.AccountResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	account, err := uow.AccountRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, dto.ErrAccountNotFound
	}

	oldRole := account.Role
	if oldRole == role {
		return toAccountResponse(account), nil
	}
	if err := uow.AccountRepository().SetRole(ctx, id, role); err != nil {
		return nil, err
	}
	account.Role = role

	s.logger.Info("ACCOUNT", "Role set by administrator", map[string]interface{}{
		"account_id": id,
		"old_role":   oldRole,
		"new_role":   role,
	})

	if account.Email != "" {
		_, err := s.queue.Enqueue(ctx, &entity.NotificationQueueItem{
			AccountId: &account.Id,
			Recipient: account.Email,
			Kind:      entity.NotificationKindRoleChange,
			DedupeKey: fmt.Sprintf("admin:%s>%s:%d", oldRole, role, s.clock.Now().UnixNano()),
			Payload: map[string]interface{}{
				"name":    account.FullName,
				"oldRole": string(oldRole),
				"newRole": string(role),
			},
		})
		if err != nil {
			s.logger.Error("ACCOUNT", "Failed to enqueue role change notification", map[string]interface{}{
				"account_id": id,
				"error":      err.Error(),
			})
		}
	}
	return toAccountResponse(account), nil
}

func toAccountResponse(a *entity.Account) *dto.AccountResponse {
	return &dto.AccountResponse{
		Id:                 a.Id,
		Email:              a.Email,
		FullName:           a.FullName,
		CustomerId:         a.CustomerId,
		Role:               string(a.Role),
		SubscriptionStatus: string(a.SubscriptionStatus),
		SubscriptionId:     a.SubscriptionId,
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
	}
}

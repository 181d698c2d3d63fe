// FILE: internal/service/session_sync_service.go
package service

import (
	"context"

	"billing-sync-be/internal/dto"
	"billing-sync-be/internal/entity"
	"billing-sync-be/internal/pkg/logger"
	"billing-sync-be/internal/pkg/retry"
	"billing-sync-be/internal/repository/memory"
	"billing-sync-be/internal/repository/specification"
	"billing-sync-be/internal/repository/unitofwork"
	"billing-sync-be/pkg/payment"

	"github.com/google/uuid"
)

type ISessionSyncService interface {
	// Sync reconciles the subscription behind a completed checkout session on
	// behalf of the authenticated user, without waiting for the webhook.
	Sync(ctx context.Context, actingUserId uuid.UUID, req *dto.SessionSyncRequest) (*dto.SessionSyncResponse, error)
}

type sessionSyncService struct {
	uowFactory unitofwork.RepositoryFactory
	provider   payment.Provider
	reconciler IReconcilerService
	sessions   *memory.CheckoutSessionRepository
	retrier    *retry.Retrier
	logger     logger.ILogger
}

func NewSessionSyncService(
	uowFactory unitofwork.RepositoryFactory,
	provider payment.Provider,
	reconciler IReconcilerService,
	sessions *memory.CheckoutSessionRepository,
	retrier *retry.Retrier,
	logger logger.ILogger,
) ISessionSyncService {
	return &sessionSyncService{
		uowFactory: uowFactory,
		provider:   provider,
		reconciler: reconciler,
		sessions:   sessions,
		retrier:    retrier,
		logger:     logger,
	}
}

func (s *sessionSyncService) Sync(ctx context.Context, actingUserId uuid.UUID, req *dto.SessionSyncRequest) (*dto.SessionSyncResponse, error) {
	if req.UserId != actingUserId.String() {
		return nil, s.denied(actingUserId.String(), req.UserId, req.SessionId)
	}

	var session *memory.CheckoutSession
	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		var resolveErr error
		session, resolveErr = s.resolveSession(ctx, req.SessionId)
		return resolveErr
	})
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actingUserId, session); err != nil {
		return nil, err
	}

	var result *dto.ReconcileResult
	err = s.retrier.Do(ctx, func(ctx context.Context) error {
		var reconcileErr error
		result, reconcileErr = s.reconciler.Reconcile(ctx, dto.ReconcileRequest{
			SubscriptionId: session.SubscriptionId,
			AccountHint:    req.UserId,
			PlanHint:       session.PlanHint,
		})
		return reconcileErr
	})
	if err != nil {
		s.logger.Error("SessionSync", "Reconciliation from redirect failed", map[string]interface{}{
			"session_id": req.SessionId,
			"user_id":    req.UserId,
			"error":      err.Error(),
		})
		return nil, err
	}
	// The subscription itself may name a different owner than the session.
	if result.AccountId != actingUserId {
		return nil, s.denied(actingUserId.String(), result.AccountId.String(), req.SessionId)
	}

	return &dto.SessionSyncResponse{
		Success:        true,
		Role:           result.Role,
		SubscriptionId: result.SubscriptionId,
	}, nil
}

// authorize checks the session was opened for the acting user. Sessions
// without an owner id (payment links, dashboard checkouts) must belong to the
// acting user's provider customer.
func (s *sessionSyncService) authorize(ctx context.Context, actingUserId uuid.UUID, session *memory.CheckoutSession) error {
	if session.AccountId != "" {
		if session.AccountId != actingUserId.String() {
			return s.denied(actingUserId.String(), session.AccountId, session.SessionId)
		}
		return nil
	}

	var account *entity.Account
	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		var findErr error
		account, findErr = s.uowFactory.NewUnitOfWork(ctx).AccountRepository().FindOne(ctx, specification.ByID{ID: actingUserId})
		return findErr
	})
	if err != nil {
		return err
	}
	if account == nil || account.CustomerId == nil || session.CustomerId == "" || *account.CustomerId != session.CustomerId {
		return s.denied(actingUserId.String(), "customer:"+session.CustomerId, session.SessionId)
	}
	return nil
}

func (s *sessionSyncService) resolveSession(ctx context.Context, sessionId string) (*memory.CheckoutSession, error) {
	if cached, ok := s.sessions.Get(sessionId); ok {
		return cached, nil
	}

	remote, err := s.provider.GetCheckoutSession(ctx, sessionId)
	if err != nil {
		return nil, &dto.ProviderFetchError{
			Resource: "checkout session",
			Id:       sessionId,
			NotFound: payment.IsNotFound(err),
			Err:      err,
		}
	}
	if remote.SubscriptionId == "" {
		return nil, dto.ErrSessionWithoutSubscription
	}

	accountId := remote.Metadata[payment.MetadataAccountId]
	if accountId == "" {
		accountId = remote.ClientReferenceId
	}
	session := &memory.CheckoutSession{
		SessionId:      remote.Id,
		SubscriptionId: remote.SubscriptionId,
		CustomerId:     remote.CustomerId,
		AccountId:      accountId,
		PlanHint:       remote.Metadata[payment.MetadataPlanType],
	}
	if session.SessionId == "" {
		session.SessionId = sessionId
	}
	s.sessions.Save(session)
	return session, nil
}

func (s *sessionSyncService) denied(acting, requested, sessionId string) error {
	s.logger.Warn("SessionSync", "User attempted to sync a session for another account", map[string]interface{}{
		"acting_user_id":    acting,
		"requested_user_id": requested,
		"session_id":        sessionId,
	})
	return &dto.AuthorizationError{ActingUserId: acting, RequestedUserId: requested}
}

// FILE: internal/service/checkout_service.go
package service

import (
	"context"
	"strings"

	"billing-sync-be/internal/dto"
	"billing-sync-be/internal/pkg/logger"
	"billing-sync-be/internal/repository/specification"
	"billing-sync-be/internal/repository/unitofwork"
	"billing-sync-be/pkg/payment"

	"github.com/google/uuid"
)

type ICheckoutService interface {
	CreateCheckout(ctx context.Context, userId uuid.UUID, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error)
}

type checkoutService struct {
	uowFactory unitofwork.RepositoryFactory
	provider   payment.Provider
	roles      *RoleMapper
	clientURL  string
	logger     logger.ILogger
}

func NewCheckoutService(
	uowFactory unitofwork.RepositoryFactory,
	provider payment.Provider,
	roles *RoleMapper,
	clientURL string,
	logger logger.ILogger,
) ICheckoutService {
	return &checkoutService{
		uowFactory: uowFactory,
		provider:   provider,
		roles:      roles,
		clientURL:  strings.TrimRight(clientURL, "/"),
		logger:     logger,
	}
}

func (s *checkoutService) CreateCheckout(ctx context.Context, userId uuid.UUID, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	if !s.roles.IsKnownPrice(req.PriceId) {
		return nil, dto.ErrUnknownPrice
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	account, err := uow.AccountRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, dto.ErrAccountNotFound
	}

	// 1. External customer, created once per account
	customerId := ""
	if account.CustomerId != nil {
		customerId = *account.CustomerId
	}
	if customerId == "" {
		customerId, err = s.provider.CreateCustomer(ctx, payment.CustomerParams{
			Email:     account.Email,
			Name:      account.FullName,
			AccountId: account.Id.String(),
		})
		if err != nil {
			return nil, &dto.ProviderFetchError{Resource: "customer", Id: account.Id.String(), Err: err}
		}
		if err := uow.AccountRepository().SetCustomerId(ctx, account.Id, customerId); err != nil {
			return nil, err
		}
		s.logger.Info("CHECKOUT", "Created provider customer", map[string]interface{}{
			"account_id":  account.Id,
			"customer_id": customerId,
		})
	}

	// 2. Subscription-mode session carrying the account id
	session, err := s.provider.CreateCheckoutSession(ctx, payment.CheckoutParams{
		CustomerId: customerId,
		PriceId:    req.PriceId,
		AccountId:  account.Id.String(),
		SuccessURL: s.clientURL + "/payment/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.clientURL + "/pricing",
	})
	if err != nil {
		return nil, &dto.ProviderFetchError{Resource: "checkout session", Id: req.PriceId, Err: err}
	}

	s.logger.Info("CHECKOUT", "Checkout session created", map[string]interface{}{
		"account_id": account.Id,
		"session_id": session.Id,
		"price_id":   req.PriceId,
	})
	return &dto.CheckoutResponse{SessionId: session.Id, URL: session.URL}, nil
}

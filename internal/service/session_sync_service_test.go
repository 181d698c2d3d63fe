package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"billing-sync-be/internal/dto"
	"billing-sync-be/internal/entity"
	"billing-sync-be/internal/repository/memory"
	"billing-sync-be/pkg/payment"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessionSync(h *testHarness) ISessionSyncService {
	return NewSessionSyncService(h.store, h.provider, h.reconciler, memory.NewCheckoutSessionRepository(time.Hour), fastRetrier(), h.log)
}

func TestSessionSyncRejectsOtherUser(t *testing.T) {
	h := newTestHarness(t)
	svc := newTestSessionSync(h)
	victim := h.newAccount(entity.RoleFree)

	_, err := svc.Sync(context.Background(), uuid.New(), &dto.SessionSyncRequest{
		SessionId: "cs_1",
		UserId:    victim.Id.String(),
	})

	var authErr *dto.AuthorizationError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, victim.Id.String(), authErr.RequestedUserId)
	assert.Equal(t, 0, h.provider.getSessionCalls)
	assert.Equal(t, 0, h.store.updateBillingCalls)
}

func TestSessionSyncAppliesSubscription(t *testing.T) {
	h := newTestHarness(t)
	svc := newTestSessionSync(h)
	account := h.newAccount(entity.RoleFree)
	h.activeSubscription("sub_1", account, "price_teacher_m")
	h.provider.sessions["cs_1"] = &payment.CheckoutSession{
		Id:                "cs_1",
		Mode:              payment.CheckoutModeSubscription,
		SubscriptionId:    "sub_1",
		ClientReferenceId: account.Id.String(),
	}

	req := &dto.SessionSyncRequest{SessionId: "cs_1", UserId: account.Id.String()}
	res, err := svc.Sync(context.Background(), account.Id, req)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "Teacher", res.Role)
	require.NotNil(t, res.SubscriptionId)
	assert.Equal(t, "sub_1", *res.SubscriptionId)

	// A refresh of the success page is served from the cache and changes nothing.
	res, err = svc.Sync(context.Background(), account.Id, req)
	require.NoError(t, err)
	assert.Equal(t, "Teacher", res.Role)
	assert.Equal(t, 1, h.provider.getSessionCalls)
	assert.Len(t, h.store.items(), 1)
}

func TestSessionSyncWithoutSubscription(t *testing.T) {
	h := newTestHarness(t)
	svc := newTestSessionSync(h)
	account := h.newAccount(entity.RoleFree)
	h.provider.sessions["cs_1"] = &payment.CheckoutSession{Id: "cs_1", Mode: "payment"}

	_, err := svc.Sync(context.Background(), account.Id, &dto.SessionSyncRequest{SessionId: "cs_1", UserId: account.Id.String()})
	assert.ErrorIs(t, err, dto.ErrSessionWithoutSubscription)
}

func TestSessionSyncRejectsForeignSession(t *testing.T) {
	h := newTestHarness(t)
	svc := newTestSessionSync(h)
	owner := h.newAccount(entity.RoleFree)
	intruder := h.newAccount(entity.RoleFree)
	h.activeSubscription("sub_1", owner, "price_teacher_m")
	h.provider.sessions["cs_1"] = &payment.CheckoutSession{
		Id:             "cs_1",
		SubscriptionId: "sub_1",
		Metadata:       map[string]string{payment.MetadataAccountId: owner.Id.String()},
	}

	_, err := svc.Sync(context.Background(), intruder.Id, &dto.SessionSyncRequest{SessionId: "cs_1", UserId: intruder.Id.String()})

	var authErr *dto.AuthorizationError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, entity.RoleFree, h.store.account(t, owner.Id).Role)
	assert.Equal(t, entity.RoleFree, h.store.account(t, intruder.Id).Role)
}

func TestSessionSyncUnknownSession(t *testing.T) {
	h := newTestHarness(t)
	svc := newTestSessionSync(h)
	account := h.newAccount(entity.RoleFree)

	_, err := svc.Sync(context.Background(), account.Id, &dto.SessionSyncRequest{SessionId: "cs_missing", UserId: account.Id.String()})

	var fetchErr *dto.ProviderFetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.True(t, fetchErr.NotFound)
}

func TestSessionSyncOwnerlessSessionRequiresMatchingCustomer(t *testing.T) {
	h := newTestHarness(t)
	svc := newTestSessionSync(h)
	ctx := context.Background()

	ownerCustomer := "cus_owner"
	owner := h.newAccount(entity.RoleFree)
	h.store.setCustomer(owner.Id, ownerCustomer)
	intruder := h.newAccount(entity.RoleFree)

	// A payment-link checkout: no owner metadata anywhere.
	h.provider.putSubscription(&payment.Subscription{
		Id:         "sub_x",
		CustomerId: ownerCustomer,
		Status:     "active",
		PriceId:    "price_teacher_m",
		Interval:   "month",
	})
	h.provider.sessions["cs_x"] = &payment.CheckoutSession{
		Id:             "cs_x",
		Mode:           payment.CheckoutModeSubscription,
		SubscriptionId: "sub_x",
		CustomerId:     ownerCustomer,
	}

	_, err := svc.Sync(ctx, intruder.Id, &dto.SessionSyncRequest{SessionId: "cs_x", UserId: intruder.Id.String()})
	var authErr *dto.AuthorizationError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, entity.RoleFree, h.store.account(t, intruder.Id).Role)
	_, recorded := h.store.record("sub_x")
	assert.False(t, recorded)
	assert.Equal(t, 0, h.provider.subscriptionCalls())

	res, err := svc.Sync(ctx, owner.Id, &dto.SessionSyncRequest{SessionId: "cs_x", UserId: owner.Id.String()})
	require.NoError(t, err)
	assert.Equal(t, "Teacher", res.Role)
	assert.Equal(t, entity.RoleTeacher, h.store.account(t, owner.Id).Role)
	record, ok := h.store.record("sub_x")
	require.True(t, ok)
	assert.Equal(t, owner.Id, record.AccountId)
}

func TestSessionSyncCustomerLinkWinsOverCaller(t *testing.T) {
	h := newTestHarness(t)
	svc := newTestSessionSync(h)
	ctx := context.Background()

	owner := h.newAccount(entity.RoleFree)
	h.store.setCustomer(owner.Id, "cus_owner")
	intruder := h.newAccount(entity.RoleFree)
	h.provider.putSubscription(&payment.Subscription{
		Id:         "sub_x",
		CustomerId: "cus_owner",
		Status:     "active",
		PriceId:    "price_teacher_m",
	})
	// The session claims the intruder but the subscription belongs to the owner's customer.
	h.provider.sessions["cs_x"] = &payment.CheckoutSession{
		Id:                "cs_x",
		SubscriptionId:    "sub_x",
		ClientReferenceId: intruder.Id.String(),
	}

	_, err := svc.Sync(ctx, intruder.Id, &dto.SessionSyncRequest{SessionId: "cs_x", UserId: intruder.Id.String()})
	var authErr *dto.AuthorizationError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, entity.RoleFree, h.store.account(t, intruder.Id).Role)
	record, ok := h.store.record("sub_x")
	require.True(t, ok)
	assert.Equal(t, owner.Id, record.AccountId)
}

func TestSessionSyncRetriesTransientProviderErrors(t *testing.T) {
	h := newTestHarness(t)
	svc := newTestSessionSync(h)
	account := h.newAccount(entity.RoleFree)
	h.activeSubscription("sub_1", account, "price_student_m")
	h.provider.sessions["cs_1"] = &payment.CheckoutSession{
		Id:                "cs_1",
		SubscriptionId:    "sub_1",
		ClientReferenceId: account.Id.String(),
	}
	outage := errors.New("stripe: 503 service unavailable")
	h.provider.sessionErrs["cs_1"] = []error{outage}
	h.provider.subErrs["sub_1"] = []error{outage, outage}

	res, err := svc.Sync(context.Background(), account.Id, &dto.SessionSyncRequest{SessionId: "cs_1", UserId: account.Id.String()})
	require.NoError(t, err)
	assert.Equal(t, "Student", res.Role)
	assert.Equal(t, 2, h.provider.getSessionCalls)
	assert.Equal(t, 3, h.provider.subscriptionCalls())
}

func TestSessionSyncGivesUpAfterRetries(t *testing.T) {
	h := newTestHarness(t)
	svc := newTestSessionSync(h)
	account := h.newAccount(entity.RoleFree)
	outage := errors.New("stripe: 503 service unavailable")
	h.provider.sessionErrs["cs_1"] = []error{outage, outage, outage, outage}

	_, err := svc.Sync(context.Background(), account.Id, &dto.SessionSyncRequest{SessionId: "cs_1", UserId: account.Id.String()})
	var fetchErr *dto.ProviderFetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.False(t, fetchErr.NotFound)
	assert.Equal(t, 3, h.provider.getSessionCalls)
}

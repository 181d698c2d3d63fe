package service

import (
	"context"
	"testing"
	"time"

	"billing-sync-be/internal/dto"
	"billing-sync-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenewalRemindersQueuedOncePerPeriod(t *testing.T) {
	h := newTestHarness(t)
	svc := NewRenewalReminderService(h.store, h.queue, h.roles, h.clock, h.log, 72*time.Hour, "https://app.example.com/")
	ctx := context.Background()

	soon := h.newAccount(entity.RoleFree)
	sub := h.activeSubscription("sub_soon", soon, "price_teacher_m")
	sub.CurrentPeriodEnd = testNow.Add(48 * time.Hour)
	h.provider.putSubscription(sub)

	later := h.newAccount(entity.RoleFree)
	h.activeSubscription("sub_later", later, "price_student_m")

	lapsing := h.newAccount(entity.RoleFree)
	lapse := h.activeSubscription("sub_lapsing", lapsing, "price_student_m")
	lapse.CurrentPeriodEnd = testNow.Add(24 * time.Hour)
	lapse.CancelAtPeriodEnd = true
	h.provider.putSubscription(lapse)

	for _, id := range []string{"sub_soon", "sub_later", "sub_lapsing"} {
		_, err := h.reconciler.Reconcile(ctx, dto.ReconcileRequest{SubscriptionId: id})
		require.NoError(t, err)
	}

	n, err := svc.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	reminders := h.store.itemsOfKind(entity.NotificationKindRenewalReminder)
	require.Len(t, reminders, 1)
	assert.Equal(t, soon.Email, reminders[0].Recipient)
	assert.Equal(t, "Teacher Monthly", reminders[0].Payload["planName"])
	assert.Equal(t, "March 12, 2025", reminders[0].Payload["renewalDate"])
	assert.Equal(t, "https://app.example.com/dashboard", reminders[0].Payload["manageURL"])

	// The next scheduled run within the same period adds nothing.
	h.clock.Advance(time.Hour)
	n, err = svc.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Len(t, h.store.itemsOfKind(entity.NotificationKindRenewalReminder), 1)
}

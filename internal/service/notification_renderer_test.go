package service

import (
	"testing"

	"billing-sync-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRendererSubjects(t *testing.T) {
	renderer, err := NewNotificationRenderer("Stellar Learning", "https://app.example.com")
	require.NoError(t, err)

	tests := []struct {
		kind    entity.NotificationKind
		payload map[string]interface{}
		subject string
		body    string
	}{
		{
			kind:    entity.NotificationKindSignUp,
			payload: map[string]interface{}{"name": "Ada", "email": "ada@example.com"},
			subject: "Welcome to Stellar Learning!",
			body:    "ada@example.com",
		},
		{
			kind:    entity.NotificationKindPayment,
			payload: map[string]interface{}{"name": "Ada", "planName": "Teacher Yearly"},
			subject: "Payment Confirmation - Welcome to Teacher Yearly!",
			body:    "Teacher Yearly",
		},
		{
			kind:    entity.NotificationKindRoleChange,
			payload: map[string]interface{}{"oldRole": "Free", "newRole": "Student"},
			subject: "Your Account Role Has Been Updated",
			body:    "Student",
		},
		{
			kind:    entity.NotificationKindSubscriptionCancelled,
			payload: map[string]interface{}{"planName": "Student Monthly", "cancellationDate": "March 10, 2025"},
			subject: "Subscription Cancelled",
			body:    "March 10, 2025",
		},
		{
			kind:    entity.NotificationKindRenewalReminder,
			payload: map[string]interface{}{"planName": "Student Monthly", "renewalDate": "March 13, 2025"},
			subject: "Your Subscription Renews in 3 Days",
			body:    "https://app.example.com/dashboard",
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			subject, body, err := renderer.Render(tt.kind, tt.payload)
			require.NoError(t, err)
			assert.Equal(t, tt.subject, subject)
			assert.Contains(t, body, tt.body)
			assert.Contains(t, body, "Stellar Learning")
		})
	}
}

func TestRendererDefaultsAndEscaping(t *testing.T) {
	renderer, err := NewNotificationRenderer("Stellar Learning", "https://app.example.com")
	require.NoError(t, err)

	subject, body, err := renderer.Render(entity.NotificationKindPayment, map[string]interface{}{"name": nil})
	require.NoError(t, err)
	assert.Equal(t, "Payment Confirmation - Welcome to Plan!", subject)
	assert.Contains(t, body, "Hello there")

	_, body, err = renderer.Render(entity.NotificationKindSignUp, map[string]interface{}{"name": "<script>x</script>"})
	require.NoError(t, err)
	assert.NotContains(t, body, "<script>")
}

func TestRendererUnknownKind(t *testing.T) {
	renderer, err := NewNotificationRenderer("Stellar Learning", "https://app.example.com")
	require.NoError(t, err)

	_, _, err = renderer.Render("mystery", nil)
	assert.Error(t, err)
}

package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string
type AccountSubscriptionStatus string

const (
	RoleFree    Role = "Free"
	RoleStudent Role = "Student"
	RoleTeacher Role = "Teacher"
	RoleAdmin   Role = "Admin"

	AccountSubscriptionNone      AccountSubscriptionStatus = "none"
	AccountSubscriptionActive    AccountSubscriptionStatus = "active"
	AccountSubscriptionPastDue   AccountSubscriptionStatus = "past_due"
	AccountSubscriptionCancelled AccountSubscriptionStatus = "cancelled"
)

// ParseRole matches a role name case-insensitively. Admin is included so the
// explicit admin action can use it; automated paths never produce it.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "free":
		return RoleFree, true
	case "student":
		return RoleStudent, true
	case "teacher":
		return RoleTeacher, true
	case "admin":
		return RoleAdmin, true
	}
	return "", false
}

type Account struct {
	Id                 uuid.UUID
	Email              string
	FullName           string
	CustomerId         *string
	Role               Role
	SubscriptionStatus AccountSubscriptionStatus
	SubscriptionId     *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (a *Account) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

// AccountBillingUpdate is the set of fields the reconciler writes in one
// statement. Role is skipped when nil and never applied over Admin.
type AccountBillingUpdate struct {
	CustomerId         *string
	Role               *Role
	SubscriptionStatus AccountSubscriptionStatus
	SubscriptionId     *string
	ClearSubscription  bool
}

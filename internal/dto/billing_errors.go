package dto

import (
	"errors"
	"fmt"
)

// ErrSignatureInvalid rejects a webhook whose signature does not verify.
var ErrSignatureInvalid = errors.New("webhook signature invalid")

// ErrSessionWithoutSubscription is returned when a checkout session has no
// subscription attached (payment mode session or abandoned checkout).
var ErrSessionWithoutSubscription = errors.New("checkout session has no subscription")

// ErrAccountNotFound is returned by account lookups that require a row.
var ErrAccountNotFound = errors.New("account not found")

// ErrUnknownPrice is returned when a checkout is requested for a price id
// outside the configured table.
var ErrUnknownPrice = errors.New("unknown price id")

type ProviderFetchError struct {
	Resource string
	Id       string
	NotFound bool
	Err      error
}

func (e *ProviderFetchError) Error() string {
	return fmt.Sprintf("provider fetch %s %s: %v", e.Resource, e.Id, e.Err)
}

func (e *ProviderFetchError) Unwrap() error {
	return e.Err
}

// Transient is false for missing resources; redelivery will not make them appear.
func (e *ProviderFetchError) Transient() bool {
	return !e.NotFound
}

type UnresolvedAccountError struct {
	SubscriptionId string
	CustomerId     string
	AccountHint    string
}

func (e *UnresolvedAccountError) Error() string {
	return fmt.Sprintf("no account for subscription %s (customer=%q hint=%q)", e.SubscriptionId, e.CustomerId, e.AccountHint)
}

func (e *UnresolvedAccountError) Transient() bool {
	return false
}

type StoreWriteError struct {
	Op        string
	Retryable bool
	Err       error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreWriteError) Unwrap() error {
	return e.Err
}

func (e *StoreWriteError) Transient() bool {
	return e.Retryable
}

type AuthorizationError struct {
	ActingUserId    string
	RequestedUserId string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("user %s may not act for %s", e.ActingUserId, e.RequestedUserId)
}

func (e *AuthorizationError) Transient() bool {
	return false
}

type DeliveryFailure struct {
	ItemId    string
	Recipient string
	Err       error
}

func (e *DeliveryFailure) Error() string {
	return fmt.Sprintf("deliver notification %s to %s: %v", e.ItemId, e.Recipient, e.Err)
}

func (e *DeliveryFailure) Unwrap() error {
	return e.Err
}

func (e *DeliveryFailure) Transient() bool {
	return true
}

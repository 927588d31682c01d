package subscription

import "errors"

var (
	ErrValidation = errors.New("subscription validation failed")

	ErrSubscriptionNotFound      = errors.New("subscription not found")
	ErrSubscriptionAlreadyExists = errors.New("subscription already exists")

	ErrProviderError             = errors.New("subscription provider error")
	ErrWebhookVerificationFailed = errors.New("webhook signature verification failed")
	ErrInvalidWebhookPayload     = errors.New("invalid webhook payload")
	ErrNoCheckoutURL             = errors.New("no checkout URL returned from provider")
	ErrMissingCustomerCode       = errors.New("no customer code returned from provider")

	ErrPersistence = errors.New("subscription persistence failed")

	// ErrNoChange is returned by a MutateFunc to skip the write.
	ErrNoChange = errors.New("subscription unchanged")

	ErrMissingPlanCode       = errors.New("billing provider plan code is required")
	ErrMissingPaystackClient = errors.New("paystack client is required")
)

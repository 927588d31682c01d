package paystack

import (
	"errors"
	"fmt"
)

// Retryable failures wrap ErrTimeout or ErrTemporaryFailure; everything the
// provider rejected on its merits wraps ErrPermanentFailure.
var (
	ErrInvalidConfiguration = errors.New("invalid paystack configuration")
	ErrRequestFailed        = errors.New("paystack request failed")
	ErrPermanentFailure     = errors.New("permanent paystack failure")
	ErrTemporaryFailure     = errors.New("temporary paystack failure")
	ErrTimeout              = errors.New("paystack request timeout")
	ErrCircuitOpen          = errors.New("paystack circuit breaker is open")
	ErrInvalidResponse      = errors.New("invalid paystack response")

	ErrMissingSignature = errors.New("paystack signature is missing")
	ErrInvalidSignature = errors.New("paystack signature mismatch")
)

// APIError carries the provider's own message for a failed call.
type APIError struct {
	Operation  string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("paystack %s: %s", e.Operation, e.Message)
	}
	return fmt.Sprintf("paystack %s: status %d: %s", e.Operation, e.StatusCode, e.Message)
}

// IsRetryable reports whether err is worth another attempt.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrTemporaryFailure)
}

// ProviderMessage extracts the provider message from err, if any.
func ProviderMessage(err error) (string, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message, true
	}
	return "", false
}

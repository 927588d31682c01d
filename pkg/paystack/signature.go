package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"strings"
)

// SignatureHeader carries the webhook signature.
const SignatureHeader = "x-paystack-signature"

// Sign returns the hex HMAC-SHA512 of payload keyed by the secret key,
// the scheme Paystack uses to sign webhook bodies.
func Sign(secret string, payload []byte) string {
	h := hmac.New(sha512.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

// VerifySignature checks signature against the exact bytes received.
// The payload must not be re-serialized before verification.
func VerifySignature(secret string, payload []byte, signature string) error {
	if secret == "" {
		return fmt.Errorf("%w: secret key is required", ErrInvalidConfiguration)
	}
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return ErrMissingSignature
	}

	expected := Sign(secret, payload)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(signature))) {
		return ErrInvalidSignature
	}
	return nil
}

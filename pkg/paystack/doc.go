// Package paystack is a small client for the Paystack REST API covering the
// calls a recurring subscription needs: customer creation, transaction
// initialization and verification, and subscription disable. It also verifies
// webhook signatures.
//
// # Reliability
//
// Every attempt runs under its own timeout. Timeouts, network errors, 5xx and
// 408/425/429 responses are retried with exponential backoff; other 4xx
// responses and envelopes with "status": false are final. A circuit breaker
// shared by all operations fails calls fast while the API is down.
//
//	client, err := paystack.New(cfg,
//	    paystack.WithLogger(log),
//	    paystack.WithBackoff(paystack.FixedBackoff{Interval: time.Second}),
//	)
//	customer, err := client.CreateCustomer(ctx, "owner@example.com")
//
// # Webhooks
//
// Paystack signs webhook bodies with HMAC-SHA512 keyed by the secret key and
// sends the hex digest in the x-paystack-signature header. Verify the exact
// bytes received:
//
//	if err := paystack.VerifySignature(secret, body, r.Header.Get(paystack.SignatureHeader)); err != nil {
//	    // reject with 401
//	}
//
// # Errors
//
// Failures wrap ErrTimeout, ErrTemporaryFailure or ErrPermanentFailure.
// Provider messages are available through ProviderMessage.
package paystack

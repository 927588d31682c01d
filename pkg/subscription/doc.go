// Package subscription implements the lifecycle of a restaurant business's
// dashboard subscription: a fixed three-day trial, activation through the
// payment provider, failed-charge grace periods and cancellation.
//
// # Lifecycle
//
//	trialing ──► active ──► past_due ──► active
//	    │                      │
//	    ▼                      ▼
//	 expired               cancelled   (any status may be cancelled; cancelled is final)
//
// InitializeSubscription writes a trialing record, registers the customer
// with the provider and returns a hosted checkout URL. Provider webhooks move
// the record through the states above. ResolveStatus answers "may this
// business use the dashboard right now" and expires finished trials lazily.
//
// # Access rule
//
// A business has access while its latest record is trialing with days left,
// active, or past due inside the grace window.
//
// # Webhooks
//
// HandleWebhook expects the raw request body and the signature header. The
// provider verifies the signature before anything is parsed. Normalized events
// are dispatched on a closed EventType; unknown kinds and unknown subscriptions
// are acknowledged without changes. Each record stores the key of the last
// delivery it applied, so an immediate redelivery is a no-op; WithDeduper adds
// a shared window for older redeliveries.
//
// # Storage
//
// Store implementations keep the company mirror (status and current period
// end) in the same transaction as the record. MemoryStore serves tests and
// single-process setups; pgstore is the PostgreSQL implementation.
//
//	provider, _ := subscription.NewPaystackProvider(client)
//	svc := subscription.NewService(provider, pgstore.New(pool),
//	    subscription.WithLogger(log),
//	    subscription.WithDeduper(redisdedup.New(rdb)),
//	)
package subscription

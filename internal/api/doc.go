// Package api exposes the subscription service over HTTP.
//
// Routes:
//
//	POST /initialize-subscription
//	GET  /verify/{reference}
//	GET  /subscription-status/{businessId}
//	GET  /subscription-status/{businessId}/stream   (Datastar SSE, needs WithSessions)
//	POST /sessions/{sessionId}/logout               (needs WithSessions)
//	POST /cancel-subscription
//	POST /webhook
//	GET  /businesses/{businessId}/menu-qr.png       (needs WithMenuBaseURL)
//	GET  /healthz, /readyz, /metrics
//
// JSON errors use the {"success":false,"error":"..."} envelope. The webhook
// answers with plain "ok" or "error".
//
// WithRateLimiter throttles the three routes that call Paystack per client IP
// and answers 429 once a bucket is empty. WithWebhookAllowlist rejects
// deliveries from addresses Paystack does not send from with 403.
package api

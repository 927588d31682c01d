// Package clientip resolves the caller address behind the proxies in front of
// the billing API and matches it against allowlists.
//
// GetIP honours CF-Connecting-IP, DO-Connecting-IP, X-Forwarded-For and
// X-Real-IP in that order before RemoteAddr. Middleware stores the result in
// the request context for LoggerExtractor and handlers. Allowlist holds IPs
// and CIDR prefixes; PaystackWebhookIPs lists the provider's published
// webhook sources.
package clientip

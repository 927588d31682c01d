// Package requestid tags every billing API request with a correlation ID.
//
// Middleware accepts a client-supplied X-Request-ID when it is at most 128
// characters of letters, digits, '-' and '_'; anything else is replaced with
// a UUID. LoggerExtractor plugs into logger.WithContextExtractors so every
// log line written with the request context carries request_id.
package requestid

// Package logger builds the service's *slog.Logger and holds the attribute
// helpers that keep log keys uniform (business_id, subscription_id, reference,
// event_type and so on).
//
// New applies Option functions, picks a text or JSON handler and wraps it in
// LogHandlerDecorator, which runs the registered ContextExtractor callbacks on
// every record. The request id middleware registers one, so handler logs carry
// request_id without passing it around.
//
//	log := logger.NewFromConfig(cfg,
//	    logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "trial subscription created",
//	    logger.BusinessID(businessID),
//	    logger.SubscriptionID(sub.ID),
//	)
//
// Development uses text output at debug level; staging and production use
// JSON at info level. LOG_LEVEL overrides the level.
package logger

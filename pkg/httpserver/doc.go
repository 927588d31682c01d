// Package httpserver runs the billing HTTP API with graceful shutdown.
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//
//	srv := httpserver.NewFromConfig(cfg,
//		httpserver.WithLogger(log),
//		httpserver.WithDrainHook(stopSessions),
//	)
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server failed", logger.Error(err))
//	}
//
// Run returns once ctx is cancelled and every connection has drained, after
// the shutdown hooks ran. HealthCheckHandler serves the liveness and
// readiness probes.
package httpserver

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/tabledash/billing/internal/api"
	"github.com/tabledash/billing/internal/db"
	"github.com/tabledash/billing/pkg/clientip"
	"github.com/tabledash/billing/pkg/config"
	"github.com/tabledash/billing/pkg/httpserver"
	"github.com/tabledash/billing/pkg/logger"
	"github.com/tabledash/billing/pkg/paystack"
	"github.com/tabledash/billing/pkg/pg"
	"github.com/tabledash/billing/pkg/ratelimiter"
	"github.com/tabledash/billing/pkg/redis"
	"github.com/tabledash/billing/pkg/requestid"
	"github.com/tabledash/billing/pkg/session"
	"github.com/tabledash/billing/pkg/subscription"
	"github.com/tabledash/billing/pkg/subscription/pgstore"
	"github.com/tabledash/billing/pkg/subscription/redisdedup"
)

func main() {
	var logCfg logger.Config
	config.MustLoad(&logCfg)
	log := logger.NewFromConfig(logCfg, logger.WithContextExtractors(
		requestid.LoggerExtractor(),
		clientip.LoggerExtractor(),
	))
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, log); err != nil {
		log.Error("billing service stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger) error {
	var (
		appCfg    appConfig
		pgCfg     pg.Config
		redisCfg  redis.Config
		psCfg     paystack.Config
		subCfg    subscription.Config
		limitCfg  ratelimiter.Config
		serverCfg httpserver.Config
	)
	for _, load := range []func() error{
		func() error { return config.Load(&appCfg) },
		func() error { return config.Load(&pgCfg) },
		func() error { return config.Load(&redisCfg) },
		func() error { return config.Load(&psCfg) },
		func() error { return config.Load(&subCfg) },
		func() error { return config.Load(&limitCfg) },
		func() error { return config.Load(&serverCfg) },
	} {
		if err := load(); err != nil {
			return err
		}
	}

	pool, err := pg.Connect(ctx, pgCfg, log.With(logger.Component("postgres")))
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, pgCfg, db.Migrations, log.With(logger.Component("migrations"))); err != nil {
		return err
	}

	checks := []func(context.Context) error{pg.Healthcheck(pool)}
	var limitStore ratelimiter.Store
	svcOpts := []subscription.ServiceOption{
		subscription.WithConfig(subCfg),
		subscription.WithLogger(log.With(logger.Component("subscription"))),
	}

	if redisCfg.Enabled() {
		rdb, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()

		checks = append(checks, redis.Healthcheck(rdb))
		svcOpts = append(svcOpts, subscription.WithDeduper(redisdedup.New(rdb)))
		limitStore = ratelimiter.NewRedisStore(rdb)
	} else {
		log.Info("REDIS_URL not set, webhook dedup uses the subscription record only")
		mem := ratelimiter.NewMemoryStore()
		defer mem.Close()
		limitStore = mem
	}

	limiter, err := ratelimiter.NewBucket(limitStore, limitCfg)
	if err != nil {
		return err
	}
	webhookIPs, err := clientip.NewAllowlist(appCfg.WebhookAllowlist...)
	if err != nil {
		return err
	}

	client, err := paystack.New(psCfg, paystack.WithLogger(log.With(logger.Component("paystack"))))
	if err != nil {
		return err
	}
	provider, err := subscription.NewPaystackProvider(client)
	if err != nil {
		return err
	}

	svc := subscription.NewService(provider, pgstore.New(pool), svcOpts...)

	sessions := session.NewController(svc,
		session.WithInterval(subCfg.PollInterval),
		session.WithLogger(log.With(logger.Component("session"))),
	)

	apiOpts := []api.Option{
		api.WithLogger(log.With(logger.Component("api"))),
		api.WithSessions(sessions),
		api.WithReadinessChecks(checks...),
		api.WithRateLimiter(limiter),
		api.WithWebhookAllowlist(webhookIPs),
	}
	if appCfg.MenuBaseURL != "" {
		apiOpts = append(apiOpts, api.WithMenuBaseURL(appCfg.MenuBaseURL))
	}

	srv := httpserver.NewFromConfig(serverCfg,
		httpserver.WithLogger(log.With(logger.Component("http"))),
		httpserver.WithDrainHook(func() {
			if err := sessions.Shutdown(context.Background()); err != nil {
				log.Warn("failed to stop dashboard sessions", logger.Error(err))
			}
		}),
	)
	return srv.Run(ctx, api.New(svc, apiOpts...).Router())
}

// Package redis connects the optional Redis instance used for webhook
// delivery dedup.
//
//	if cfg.Enabled() {
//		rdb, err := redis.Connect(ctx, cfg)
//		...
//	}
//
// Healthcheck plugs the connection into the readiness endpoint.
package redis

// Package redisdedup remembers applied webhook deliveries in Redis so that
// redeliveries are skipped across records and service instances.
package redisdedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tabledash/billing/pkg/subscription"
)

const (
	DefaultPrefix = "billing:webhook:"
	// DefaultTTL covers Paystack's retry schedule for failed deliveries.
	DefaultTTL = 72 * time.Hour
)

// Deduper implements subscription.Deduper on Redis keys with a TTL.
type Deduper struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ subscription.Deduper = (*Deduper)(nil)

// Option configures a Deduper.
type Option func(*Deduper)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(d *Deduper) {
		if prefix != "" {
			d.prefix = prefix
		}
	}
}

// WithTTL sets how long a delivery is remembered.
func WithTTL(ttl time.Duration) Option {
	return func(d *Deduper) {
		if ttl > 0 {
			d.ttl = ttl
		}
	}
}

// New creates a Deduper on client.
func New(client redis.UniversalClient, opts ...Option) *Deduper {
	if client == nil {
		panic("redisdedup: client is required")
	}
	d := &Deduper{client: client, prefix: DefaultPrefix, ttl: DefaultTTL}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Deduper) Seen(ctx context.Context, key string) (bool, error) {
	n, err := d.client.Exists(ctx, d.prefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("redisdedup: exists: %w", err)
	}
	return n > 0, nil
}

func (d *Deduper) Remember(ctx context.Context, key string) error {
	if err := d.client.Set(ctx, d.prefix+key, 1, d.ttl).Err(); err != nil {
		return fmt.Errorf("redisdedup: set: %w", err)
	}
	return nil
}

package subscription

import (
	"log/slog"
	"time"
)

// ServiceOption configures a Service instance.
type ServiceOption func(*service)

// WithConfig overrides the lifecycle timings. Non-positive values fall back to defaults.
func WithConfig(cfg Config) ServiceOption {
	return func(s *service) {
		s.cfg = cfg
	}
}

// WithClock replaces time.Now. Tests use it to pin trial and grace boundaries.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger used for lifecycle events.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDeduper enables cross-record webhook redelivery dedup.
// Without it only an exact repeat of a record's last applied delivery is skipped.
func WithDeduper(d Deduper) ServiceOption {
	return func(s *service) {
		s.dedup = d
	}
}

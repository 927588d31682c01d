package subscription

import (
	"time"

	"github.com/shopspring/decimal"
)

// The dashboard sells a single plan tier at a fixed price.
const (
	PlanName     = "Professional Plan"
	PlanType     = "professional"
	PlanCurrency = "NGN"

	// planAmountKobo is the plan price in the provider's minor unit.
	planAmountKobo int64 = 3_000_000

	// SubscriptionType is sent as checkout metadata.
	SubscriptionType = "monthly"
)

const (
	ReasonCancelledByUser   = "Cancelled by user"
	ReasonMaxFailedAttempts = "Max payment attempts failed"
)

// PlanAmount returns the plan price in naira.
func PlanAmount() decimal.Decimal {
	return KoboToNaira(planAmountKobo)
}

// PlanAmountKobo returns the plan price in kobo, as the provider expects it.
func PlanAmountKobo() int64 {
	return planAmountKobo
}

// KoboToNaira converts a provider minor-unit amount into naira without float rounding.
func KoboToNaira(kobo int64) decimal.Decimal {
	return decimal.New(kobo, -2)
}

// Config holds the lifecycle timing knobs.
type Config struct {
	TrialDays         int           `env:"SUBSCRIPTION_TRIAL_DAYS" envDefault:"3"`
	GraceDays         int           `env:"SUBSCRIPTION_GRACE_DAYS" envDefault:"3"`
	MaxFailedAttempts int           `env:"SUBSCRIPTION_MAX_FAILED_ATTEMPTS" envDefault:"3"`
	PollInterval      time.Duration `env:"SUBSCRIPTION_POLL_INTERVAL" envDefault:"5m"`
}

// DefaultConfig returns the production lifecycle timings.
func DefaultConfig() Config {
	return Config{
		TrialDays:         3,
		GraceDays:         3,
		MaxFailedAttempts: 3,
		PollInterval:      5 * time.Minute,
	}
}

func (c Config) trialPeriod() time.Duration {
	return time.Duration(c.TrialDays) * 24 * time.Hour
}

func (c Config) gracePeriod() time.Duration {
	return time.Duration(c.GraceDays) * 24 * time.Hour
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.TrialDays <= 0 {
		c.TrialDays = d.TrialDays
	}
	if c.GraceDays <= 0 {
		c.GraceDays = d.GraceDays
	}
	if c.MaxFailedAttempts <= 0 {
		c.MaxFailedAttempts = d.MaxFailedAttempts
	}
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	return c
}

package paystack

import "time"

type Config struct {
	SecretKey  string        `env:"PAYSTACK_SECRET_KEY,required"`                            // SecretKey authenticates API calls and signs webhooks.
	PlanCode   string        `env:"PAYSTACK_PLAN_CODE,required"`                             // PlanCode is the recurring plan the checkout subscribes to.
	BaseURL    string        `env:"PAYSTACK_BASE_URL" envDefault:"https://api.paystack.co"` // BaseURL is the API root.
	Timeout    time.Duration `env:"PAYSTACK_TIMEOUT" envDefault:"15s"`                      // Timeout bounds a single request attempt.
	MaxRetries int           `env:"PAYSTACK_MAX_RETRIES" envDefault:"2"`                    // MaxRetries is the number of retries after the first attempt.

	CircuitFailureThreshold int           `env:"PAYSTACK_CIRCUIT_FAILURES" envDefault:"5"`         // CircuitFailureThreshold opens the breaker after this many consecutive failures.
	CircuitRecoveryTimeout  time.Duration `env:"PAYSTACK_CIRCUIT_RECOVERY_TIMEOUT" envDefault:"30s"` // CircuitRecoveryTimeout is how long the breaker stays open.
}

const defaultBaseURL = "https://api.paystack.co"

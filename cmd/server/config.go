package main

// appConfig holds settings owned by the binary itself.
type appConfig struct {
	MenuBaseURL      string   `env:"PUBLIC_MENU_BASE_URL"`
	WebhookAllowlist []string `env:"PAYSTACK_WEBHOOK_IPS" envSeparator:","`
}

package retry

import (
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	defaultAttempts = 3
	defaultDelay    = 2 * time.Second
	defaultMaxDelay = 10 * time.Second
)

// RetryConfig describes an exponential backoff: Delay doubles after each
// failed attempt and never exceeds MaxDelay. Timeout bounds a single attempt.
type RetryConfig struct {
	Attempts uint          `env:"ATTEMPTS" envDefault:"3"`
	Delay    time.Duration `env:"DELAY" envDefault:"2s"`
	MaxDelay time.Duration `env:"MAX_DELAY" envDefault:"10s"`
	Timeout  time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

// ToRetryOptions converts the config for retry-go. Zero fields take the
// defaults, a zero Attempts would otherwise retry forever.
func (rc *RetryConfig) ToRetryOptions() []retry.Option {
	cfg := rc.withDefaults()
	return []retry.Option{
		retry.Attempts(cfg.Attempts),
		retry.Delay(cfg.Delay),
		retry.MaxDelay(cfg.MaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	}
}

func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		Attempts: defaultAttempts,
		Delay:    defaultDelay,
		MaxDelay: defaultMaxDelay,
	}
}

func (rc *RetryConfig) withDefaults() RetryConfig {
	cfg := *rc
	def := DefaultRetryConfig()
	if cfg.Attempts == 0 {
		cfg.Attempts = def.Attempts
	}
	if cfg.Delay <= 0 {
		cfg.Delay = def.Delay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = def.MaxDelay
	}
	return cfg
}

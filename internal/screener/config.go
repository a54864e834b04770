package screener

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultMaxRetries   = 3
	DefaultMaxLogLength = 200
)

// Config bounds the retry loop. Every model call is attempted at most
// MaxRetries+1 times.
type Config struct {
	MaxRetries int           `mapstructure:"max-retries" validate:"gte=0,lte=10"`
	RetryDelay time.Duration `mapstructure:"retry-delay" validate:"gte=0"`
	// MaxLogLength bounds prompt and response previews in debug logs.
	MaxLogLength int `mapstructure:"max-log-length" validate:"gte=0"`
}

func DefaultConfig() Config {
	return Config{
		MaxRetries:   DefaultMaxRetries,
		MaxLogLength: DefaultMaxLogLength,
	}
}

var validate = validator.New()

// Validate checks the config bounds.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid screener config: %w", err)
	}
	return nil
}

package server

import (
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"

	guru "github.com/GPTx-global/oraclelink/types"
)

// Config is the API server configuration, read from the [api] table of
// app.toml.
type Config struct {
	Address            string        `mapstructure:"address"`
	ReadTimeout        time.Duration `mapstructure:"read_timeout"`
	WriteTimeout       time.Duration `mapstructure:"write_timeout"`
	CORSAllowedOrigins []string      `mapstructure:"cors_allowed_origins"`
	// RateLimit is the sustained number of requests per second allowed per
	// client address. Zero disables rate limiting.
	RateLimit    float64 `mapstructure:"rate_limit"`
	RateBurst    int     `mapstructure:"rate_burst"`
	MaxPageSize  int     `mapstructure:"max_page_size"`
	EnableFaucet bool    `mapstructure:"enable_faucet"`
	FaucetAmount string  `mapstructure:"faucet_amount"`
}

// DefaultConfig returns the default API configuration.
func DefaultConfig() Config {
	return Config{
		Address:            "127.0.0.1:1317",
		ReadTimeout:        10 * time.Second,
		WriteTimeout:       10 * time.Second,
		CORSAllowedOrigins: []string{"*"},
		RateLimit:          20,
		RateBurst:          40,
		MaxPageSize:        100,
		EnableFaucet:       false,
		FaucetAmount:       guru.OneGuru.String(),
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("api address cannot be empty")
	}
	if c.RateLimit < 0 || c.RateBurst < 0 {
		return fmt.Errorf("rate limit cannot be negative")
	}
	if c.RateLimit > 0 && c.RateBurst == 0 {
		return fmt.Errorf("rate burst must be positive when rate limiting is enabled")
	}
	if c.MaxPageSize <= 0 {
		return fmt.Errorf("max page size must be positive")
	}
	if c.EnableFaucet {
		if _, err := c.faucetAmount(); err != nil {
			return err
		}
	}
	return nil
}

func (c Config) faucetAmount() (sdkmath.Int, error) {
	amount, ok := sdkmath.NewIntFromString(c.FaucetAmount)
	if !ok || !amount.IsPositive() {
		return sdkmath.Int{}, fmt.Errorf("invalid faucet amount %q", c.FaucetAmount)
	}
	return amount, nil
}

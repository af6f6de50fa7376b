package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full rebalancer configuration.
type Config struct {
	Gateway  GatewayConfig   `yaml:"gateway"`
	Engine   EngineConfig    `yaml:"engine"`
	Accounts []AccountConfig `yaml:"accounts"`
	Storage  StorageConfig   `yaml:"storage"`
	Log      LogConfig       `yaml:"log"`
}

// GatewayConfig points at the Client Portal gateway.
type GatewayConfig struct {
	URL string `yaml:"url"`
	// The gateway serves a self-signed certificate on localhost.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

// EngineConfig tunes run timing and retry budgets.
type EngineConfig struct {
	PollIntervalSeconds   int `yaml:"poll_interval_seconds"`   // order status poll period
	MaxWaitSeconds        int `yaml:"max_wait_seconds"`        // 0 = wait for fills forever
	PricingRetries        int `yaml:"pricing_retries"`         // snapshot attempts per instrument
	PricingBackoffSeconds int `yaml:"pricing_backoff_seconds"` // pause between snapshot attempts
}

// AccountConfig describes one account to rebalance.
type AccountConfig struct {
	AccountID string `yaml:"account_id"`
	Name      string `yaml:"name"`
	// PortfolioCap is "" (no cap), "$<amount>" or "<percent>%".
	PortfolioCap string             `yaml:"portfolio_cap"`
	Allocations  []AllocationConfig `yaml:"allocations"`
}

// AllocationConfig is one target: symbol, listing exchange and the percent
// of net value it should hold. Percent stays a string until it is parsed
// into an exact decimal; a float64 field would already lose precision.
type AllocationConfig struct {
	Symbol   string `yaml:"symbol"`
	Exchange string `yaml:"exchange"`
	Percent  string `yaml:"percent"`
}

// StorageConfig controls where run history is persisted.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // sqlite file path, or ":memory:"
}

// LogConfig controls logging format and level.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load reads the YAML config file plus a .env file if present.
// Environment values override the YAML for the keys that map to them.
func Load(path string) (*Config, error) {
	// Load .env if present (silently skip if absent).
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if len(cfg.Accounts) == 0 {
		return nil, fmt.Errorf("config.Load: no accounts configured")
	}
	for _, acct := range cfg.Accounts {
		if acct.AccountID == "" {
			return nil, fmt.Errorf("config.Load: account %q has no account_id", acct.Name)
		}
		if len(acct.Allocations) == 0 {
			return nil, fmt.Errorf("config.Load: account %q has no allocations", acct.Name)
		}
	}

	return &cfg, nil
}

// PollInterval returns the order poll period as a time.Duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Engine.PollIntervalSeconds) * time.Second
}

// MaxWait returns the per-order fill wait bound; zero means no bound.
func (c *Config) MaxWait() time.Duration {
	return time.Duration(c.Engine.MaxWaitSeconds) * time.Second
}

// PricingBackoff returns the pause between snapshot retries.
func (c *Config) PricingBackoff() time.Duration {
	return time.Duration(c.Engine.PricingBackoffSeconds) * time.Second
}

// applyEnvOverrides replaces values with environment variables if set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GATEWAY_URL"); v != "" {
		cfg.Gateway.URL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults fills required values with sensible defaults.
func setDefaults(cfg *Config) {
	if cfg.Gateway.URL == "" {
		cfg.Gateway.URL = "https://localhost:5000"
	}
	if cfg.Engine.PollIntervalSeconds <= 0 {
		cfg.Engine.PollIntervalSeconds = 5
	}
	if cfg.Engine.PricingRetries <= 0 {
		cfg.Engine.PricingRetries = 10
	}
	if cfg.Engine.PricingBackoffSeconds <= 0 {
		cfg.Engine.PricingBackoffSeconds = 1
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "rebalancer.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

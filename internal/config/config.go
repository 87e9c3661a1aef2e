// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/srdjanmarjanovic/laravelremote-sub000/internal/domain/model"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port           int           `yaml:"port"`
	WebhookTimeout time.Duration `yaml:"webhook_timeout"` // bound on webhook processing
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	Password  string        `yaml:"password"` // single operator credential for the admin API
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"` // webhook dedup marker lifetime
}

type HostedPayConfig struct {
	MerchantID    string `yaml:"merchant_id"`
	APIKey        string `yaml:"api_key"`
	BaseURL       string `yaml:"base_url"`
	WebhookSecret string `yaml:"webhook_secret"`
	SuccessURL    string `yaml:"success_url"`
	CancelURL     string `yaml:"cancel_url"`
}

type PaymentConfig struct {
	// Provider selects the checkout strategy once at startup: hostedpay | noop.
	Provider  string          `yaml:"provider"`
	HostedPay HostedPayConfig `yaml:"hostedpay"`
}

type BillingConfig struct {
	CycleDays int `yaml:"cycle_days"`
	// TierPrices holds minor units (cents) per tier wire name.
	TierPrices map[string]int64 `yaml:"tier_prices"`
}

type SchedulerConfig struct {
	ExpiryInterval       time.Duration `yaml:"expiry_interval"`
	PendingWatchInterval time.Duration `yaml:"pending_watch_interval"`
	PendingStaleAfter    time.Duration `yaml:"pending_stale_after"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Admin     AdminConfig     `yaml:"admin"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Payment   PaymentConfig   `yaml:"payment"`
	Billing   BillingConfig   `yaml:"billing"`
	Scheduler SchedulerConfig `yaml:"scheduler"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.WebhookTimeout <= 0 {
		cfg.Server.WebhookTimeout = 10 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Admin.TokenTTL <= 0 {
		cfg.Admin.TokenTTL = 30 * time.Minute
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = 24 * time.Hour
	}
	if cfg.Payment.Provider == "" {
		cfg.Payment.Provider = "hostedpay"
	}
	if cfg.Billing.CycleDays <= 0 {
		cfg.Billing.CycleDays = 30
	}
	if len(cfg.Billing.TierPrices) == 0 {
		cfg.Billing.TierPrices = map[string]int64{
			string(model.TierRegular):  4900,
			string(model.TierFeatured): 9900,
			string(model.TierTop):      19900,
		}
	}
	if cfg.Scheduler.ExpiryInterval <= 0 {
		cfg.Scheduler.ExpiryInterval = time.Minute
	}
	if cfg.Scheduler.PendingWatchInterval <= 0 {
		cfg.Scheduler.PendingWatchInterval = 5 * time.Minute
	}
	if cfg.Scheduler.PendingStaleAfter <= 0 {
		cfg.Scheduler.PendingStaleAfter = 30 * time.Minute
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if err := validateTierPrices(cfg.Billing.TierPrices); err != nil {
		return nil, err
	}
	if cfg.Payment.Provider == "hostedpay" && !dev {
		if cfg.Payment.HostedPay.APIKey == "" {
			return nil, errors.New("payment.hostedpay.api_key is required")
		}
		if cfg.Payment.HostedPay.WebhookSecret == "" {
			return nil, errors.New("payment.hostedpay.webhook_secret is required")
		}
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

// validateTierPrices requires a price for every tier and prices strictly
// increasing with tier rank; a flat or inverted table would make "upgrades"
// free or negative.
func validateTierPrices(prices map[string]int64) error {
	var prev int64 = -1
	for _, tier := range model.AllTiers {
		p, ok := prices[string(tier)]
		if !ok {
			return fmt.Errorf("billing.tier_prices missing %q", tier)
		}
		if p <= prev {
			return fmt.Errorf("billing.tier_prices must be strictly increasing, %q (%d) <= previous (%d)", tier, p, prev)
		}
		prev = p
	}
	return nil
}

// Package config provides configuration utilities for the application.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/Veraticus/bankweave/internal/common"
	"github.com/Veraticus/bankweave/internal/plaid"
	"github.com/Veraticus/bankweave/internal/trading212"
	"github.com/spf13/viper"
)

// Defaults.
const (
	DefaultDatabasePath = "$HOME/.local/share/bankweave/bankweave.db"
	DefaultRuleCacheTTL = 5 * time.Minute
)

// Config is the resolved application configuration.
type Config struct {
	Trading212   trading212.Config
	Plaid        plaid.Config
	DatabasePath string
	LogLevel     string
	LogFormat    string
	RuleCacheTTL time.Duration
	PlaidDays    int
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("rules.cache_ttl", DefaultRuleCacheTTL)
	v.SetDefault("trading212.base_url", trading212.DefaultBaseURL)
	v.SetDefault("plaid.environment", "production")
	v.SetDefault("plaid.days", plaid.DefaultLookbackDays)
}

// Load reads the configuration from v. It follows this precedence:
// 1. Viper configuration (from flags, config file or BANKWEAVE_ env vars)
// 2. Direct provider environment variables (TRADING212_*, PLAID_*)
// 3. Default values
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	cfg := &Config{
		DatabasePath: ExpandPath(v.GetString("database.path")),
		LogLevel:     v.GetString("logging.level"),
		LogFormat:    v.GetString("logging.format"),
		RuleCacheTTL: v.GetDuration("rules.cache_ttl"),
		PlaidDays:    v.GetInt("plaid.days"),
		Trading212: trading212.Config{
			APIKey:    firstNonEmpty(v.GetString("trading212.api_key"), os.Getenv("TRADING212_API_KEY")),
			APISecret: firstNonEmpty(v.GetString("trading212.api_secret"), os.Getenv("TRADING212_API_SECRET")),
			BaseURL:   v.GetString("trading212.base_url"),
		},
		Plaid: plaid.Config{
			ClientID:    firstNonEmpty(v.GetString("plaid.client_id"), os.Getenv("PLAID_CLIENT_ID")),
			Secret:      firstNonEmpty(v.GetString("plaid.secret"), os.Getenv("PLAID_SECRET")),
			Environment: v.GetString("plaid.environment"),
			AccessToken: firstNonEmpty(v.GetString("plaid.access_token"), os.Getenv("PLAID_ACCESS_TOKEN")),
			AccountID:   v.GetString("plaid.account_id"),
		},
	}

	if cfg.DatabasePath == "" {
		return nil, fmt.Errorf("%w: database.path is empty", common.ErrInvalidConfig)
	}
	if cfg.RuleCacheTTL <= 0 {
		return nil, fmt.Errorf("%w: rules.cache_ttl must be positive", common.ErrInvalidConfig)
	}
	if _, err := common.ParseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}

	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

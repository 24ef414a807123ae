// Package app wires configuration, storage, the conversation engine and the
// Telegram handlers into a runnable bot.
package app

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/m3rciful/adboard/bot/conversation"
	coreconfig "github.com/m3rciful/adboard/core/config"
	coredatabase "github.com/m3rciful/adboard/core/database"
)

// Config is the full bot configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Ads      AdsConfig           `yaml:"ads"`
}

// CoreConfig implements cmd.ConfigCarrier.
func (c *Config) CoreConfig() *coreconfig.Config { return &c.Config }

// AdsConfig holds listing rules.
type AdsConfig struct {
	DailyLimit  int      `yaml:"daily_limit" envconfig:"ADS_DAILY_LIMIT"`
	RecentLimit int      `yaml:"recent_limit" envconfig:"ADS_RECENT_LIMIT"`
	SkipKeyword string   `yaml:"skip_keyword" envconfig:"ADS_SKIP_KEYWORD"`
	Categories  []string `yaml:"categories" envconfig:"ADS_CATEGORIES"`
	// Timezone is the IANA zone that defines "today" for the daily limit.
	Timezone string `yaml:"timezone" envconfig:"ADS_TIMEZONE"`
	Currency string `yaml:"currency" envconfig:"ADS_CURRENCY"`

	location *time.Location
}

// Normalize fills defaults and resolves the time zone.
func (a *AdsConfig) Normalize() error {
	if a.DailyLimit < 0 {
		return fmt.Errorf("ads.daily_limit must be >= 0")
	}
	if a.DailyLimit == 0 {
		a.DailyLimit = conversation.DefaultDailyLimit
	}
	if a.RecentLimit <= 0 {
		a.RecentLimit = conversation.DefaultRecentLimit
	}
	a.SkipKeyword = strings.TrimSpace(a.SkipKeyword)
	if a.SkipKeyword == "" {
		a.SkipKeyword = conversation.DefaultSkipKeyword
	}
	a.Currency = strings.TrimSpace(a.Currency)
	if a.Currency == "" {
		a.Currency = conversation.DefaultCurrency
	}

	cats := make([]string, 0, len(a.Categories))
	for _, c := range a.Categories {
		c = strings.TrimSpace(c)
		if c == "" || slices.Contains(cats, c) {
			continue
		}
		cats = append(cats, c)
	}
	if len(cats) == 0 {
		cats = slices.Clone(conversation.DefaultCategories)
	}
	a.Categories = cats

	if strings.TrimSpace(a.Timezone) == "" {
		a.Timezone = "Europe/Prague"
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return fmt.Errorf("ads.timezone: %w", err)
	}
	a.location = loc
	return nil
}

// Location returns the resolved time zone; Normalize must have run.
func (a AdsConfig) Location() *time.Location {
	if a.location == nil {
		return time.UTC
	}
	return a.location
}

// LoadConfig reads the YAML file at path, applies environment overrides and
// validates every section.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	if err := cfg.Database.Normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Ads.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

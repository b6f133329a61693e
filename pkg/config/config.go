// Package config loads monay settings from an optional JSON file and the environment.
package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix shared by every monay environment variable.
const EnvPrefix = "MONAY_"

// Defaults applied to keys left unset.
const (
	DefaultListen         = ":8080"
	DefaultReader         = "webhook"
	DefaultStore          = "sqlite"
	DefaultTimezone       = "Local"
	DefaultAccountID      = 1
	DefaultNotifyInterval = 3 * time.Second
)

// Config holds the application configuration.
// Keys are the same in the JSON file and the environment; the environment wins.
type Config struct {
	// Listen is the HTTP listen address.
	// Environment variable: MONAY_LISTEN
	Listen string `koanf:"MONAY_LISTEN"`

	// Reader is the notification source plugin name (e.g., "webhook", "jsonl").
	// Environment variable: MONAY_READER
	Reader string `koanf:"MONAY_READER"`

	// ReaderConfig is the reader plugin configuration as a JSON document.
	// Environment variable: MONAY_READER_CONFIG
	ReaderConfig string `koanf:"MONAY_READER_CONFIG"`

	// Store is the bill store plugin name (e.g., "sqlite", "postgres").
	// Environment variable: MONAY_STORE
	Store string `koanf:"MONAY_STORE"`

	// StoreConfig is the store plugin configuration as a JSON document.
	// Environment variable: MONAY_STORE_CONFIG
	StoreConfig string `koanf:"MONAY_STORE_CONFIG"`

	// Timezone is the IANA zone used for period windows and display.
	// Environment variable: MONAY_TIMEZONE
	Timezone string `koanf:"MONAY_TIMEZONE"`

	// AccountID is stamped on every new bill.
	// Environment variable: MONAY_ACCOUNT_ID
	AccountID int64 `koanf:"MONAY_ACCOUNT_ID"`

	// NotifyInterval is the minimum gap between two "recorded" notices.
	// Environment variable: MONAY_NOTIFY_INTERVAL
	NotifyInterval time.Duration `koanf:"MONAY_NOTIFY_INTERVAL"`

	// RulesFile optionally replaces the embedded parser rule table.
	// Environment variable: MONAY_RULES_FILE
	RulesFile string `koanf:"MONAY_RULES_FILE"`

	// CategoriesFile optionally replaces the embedded categorizer table.
	// Environment variable: MONAY_CATEGORIES_FILE
	CategoriesFile string `koanf:"MONAY_CATEGORIES_FILE"`
}

// Load reads the JSON file at path, when path is non-empty, then overlays
// MONAY_* environment variables and fills in defaults.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), kjson.Parser()); err != nil {
			return Config{}, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", nil), nil); err != nil {
		return Config{}, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf", FlatPaths: true}); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.Reader == "" {
		c.Reader = DefaultReader
	}
	if c.Store == "" {
		c.Store = DefaultStore
	}
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
	if c.AccountID == 0 {
		c.AccountID = DefaultAccountID
	}
	if c.NotifyInterval == 0 {
		c.NotifyInterval = DefaultNotifyInterval
	}
}

// Validate checks values that cannot be fixed by defaults.
func (c *Config) Validate() error {
	if c.AccountID < 0 {
		return fmt.Errorf("MONAY_ACCOUNT_ID must be positive, got %d", c.AccountID)
	}
	if c.NotifyInterval < 0 {
		return fmt.Errorf("MONAY_NOTIFY_INTERVAL must not be negative, got %s", c.NotifyInterval)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := rawJSON("MONAY_READER_CONFIG", c.ReaderConfig); err != nil {
		return err
	}
	if _, err := rawJSON("MONAY_STORE_CONFIG", c.StoreConfig); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == DefaultTimezone {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ReaderJSON returns ReaderConfig as raw JSON, or nil when unset.
func (c *Config) ReaderJSON() json.RawMessage {
	raw, _ := rawJSON("MONAY_READER_CONFIG", c.ReaderConfig)
	return raw
}

// StoreJSON returns StoreConfig as raw JSON, or nil when unset.
func (c *Config) StoreJSON() json.RawMessage {
	raw, _ := rawJSON("MONAY_STORE_CONFIG", c.StoreConfig)
	return raw
}

func rawJSON(key, s string) (json.RawMessage, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if !json.Valid([]byte(s)) {
		return nil, fmt.Errorf("%s is not valid JSON", key)
	}
	return json.RawMessage(s), nil
}

// Package postgres provides a plugin wrapper for the PostgreSQL store.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/monayhq/monay/pkg/api"
	pgstore "github.com/monayhq/monay/pkg/store/postgres"
)

// Plugin implements the StorePlugin interface for PostgreSQL.
type Plugin struct{}

// Name returns the plugin name.
func (p *Plugin) Name() string {
	return "postgres"
}

// Description returns a human-readable description.
func (p *Plugin) Description() string {
	return "Store bills in a PostgreSQL database"
}

// ConfigSchema returns a JSON schema describing the plugin's configuration.
func (p *Plugin) ConfigSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"dsn": map[string]any{
				"type":        "string",
				"description": "Connection string; overrides the individual fields",
			},
			"host": map[string]any{
				"type":        "string",
				"description": "PostgreSQL host address",
				"default":     "localhost",
			},
			"port": map[string]any{
				"type":        "integer",
				"description": "PostgreSQL port",
				"default":     5432,
			},
			"database": map[string]any{
				"type":        "string",
				"description": "Database name",
				"default":     "monay",
			},
			"user": map[string]any{
				"type":        "string",
				"description": "Database user",
			},
			"password": map[string]any{
				"type":        "string",
				"description": "Database password",
			},
			"sslmode": map[string]any{
				"type":        "string",
				"description": "SSL mode (disable, require, verify-ca, verify-full)",
				"default":     "disable",
				"enum":        []string{"disable", "require", "verify-ca", "verify-full"},
			},
			"maxPoolSize": map[string]any{
				"type":        "integer",
				"description": "Maximum number of connections in the pool (default: 10)",
				"default":     10,
			},
			"connectAttempts": map[string]any{
				"type":        "integer",
				"description": "Start-up connection attempts (default: 5)",
				"default":     5,
			},
			"connectDelay": map[string]any{
				"type":        "integer",
				"description": "Seconds between start-up connection attempts (default: 1)",
				"default":     1,
			},
		},
	}
}

// Config represents the PostgreSQL store configuration.
type Config struct {
	DSN             string `json:"dsn,omitempty"`
	Host            string `json:"host"`
	Port            int    `json:"port,omitempty"`
	Database        string `json:"database"`
	User            string `json:"user"`
	Password        string `json:"password"`
	SSLMode         string `json:"sslmode,omitempty"`
	MaxPoolSize     int    `json:"maxPoolSize,omitempty"`
	ConnectAttempts uint   `json:"connectAttempts,omitempty"`
	ConnectDelay    int    `json:"connectDelay,omitempty"` // in seconds
}

// NewStore connects to PostgreSQL.
func (p *Plugin) NewStore(ctx context.Context, configData json.RawMessage, loc *time.Location, logger *slog.Logger) (api.BillStore, error) {
	var cfg Config
	if err := json.Unmarshal(configData, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling postgres config: %w", err)
	}

	if cfg.DSN == "" {
		if cfg.Host == "" {
			return nil, fmt.Errorf("host is required")
		}
		if cfg.Database == "" {
			return nil, fmt.Errorf("database is required")
		}
		if cfg.User == "" {
			return nil, fmt.Errorf("user is required")
		}
	}

	return pgstore.New(ctx, pgstore.Config{
		DSN:             cfg.DSN,
		Host:            cfg.Host,
		Port:            cfg.Port,
		Database:        cfg.Database,
		User:            cfg.User,
		Password:        cfg.Password,
		SSLMode:         cfg.SSLMode,
		MaxPoolSize:     cfg.MaxPoolSize,
		ConnectAttempts: cfg.ConnectAttempts,
		ConnectDelay:    time.Duration(cfg.ConnectDelay) * time.Second,
		Location:        loc,
	}, logger)
}

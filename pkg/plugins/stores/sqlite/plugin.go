// Package sqlite provides a plugin wrapper for the SQLite store.
package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/monayhq/monay/pkg/api"
	sqlitestore "github.com/monayhq/monay/pkg/store/sqlite"
)

// Plugin implements the StorePlugin interface for SQLite.
type Plugin struct{}

// Name returns the plugin name.
func (p *Plugin) Name() string {
	return "sqlite"
}

// Description returns a human-readable description.
func (p *Plugin) Description() string {
	return "Store bills in a local SQLite database file"
}

// ConfigSchema returns a JSON schema describing the plugin's configuration.
func (p *Plugin) ConfigSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "Database file, or :memory:",
				"default":     sqlitestore.DefaultPath,
			},
			"busyTimeout": map[string]any{
				"type":        "integer",
				"description": "Milliseconds a writer waits on a locked database (default: 5000)",
				"default":     5000,
			},
		},
	}
}

// Config represents the SQLite store configuration.
type Config struct {
	Path        string `json:"path,omitempty"`
	BusyTimeout int    `json:"busyTimeout,omitempty"` // in milliseconds
}

// NewStore opens the SQLite store.
func (p *Plugin) NewStore(_ context.Context, configData json.RawMessage, loc *time.Location, logger *slog.Logger) (api.BillStore, error) {
	var cfg Config
	if err := json.Unmarshal(configData, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling sqlite config: %w", err)
	}
	return sqlitestore.New(sqlitestore.Config{
		Path:        cfg.Path,
		BusyTimeout: time.Duration(cfg.BusyTimeout) * time.Millisecond,
		Location:    loc,
	}, logger)
}

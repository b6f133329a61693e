// Package webhook provides a plugin wrapper for the HTTP notification reader.
package webhook

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/monayhq/monay/pkg/api"
	webhookreader "github.com/monayhq/monay/pkg/reader/webhook"
)

// Plugin implements the ReaderPlugin interface for the webhook reader.
// The returned reader is also an http.Handler served at /api/notifications.
type Plugin struct{}

// Name returns the plugin name.
func (p *Plugin) Name() string {
	return "webhook"
}

// Description returns a human-readable description.
func (p *Plugin) Description() string {
	return "Receive notifications POSTed by a phone-side forwarder"
}

// ConfigSchema returns a JSON schema describing the plugin's configuration.
func (p *Plugin) ConfigSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"max_body_bytes": map[string]any{
				"type":        "integer",
				"description": "Maximum request body size in bytes",
				"default":     65536,
			},
		},
	}
}

// NewReader creates a new webhook reader instance.
func (p *Plugin) NewReader(configData json.RawMessage, logger *slog.Logger) (api.Reader, error) {
	var cfg webhookreader.Config
	if err := json.Unmarshal(configData, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling webhook config: %w", err)
	}
	return webhookreader.New(cfg, logger), nil
}

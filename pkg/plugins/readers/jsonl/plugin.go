// Package jsonl provides a plugin wrapper for the JSON-lines reader.
package jsonl

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/monayhq/monay/pkg/api"
	jsonlreader "github.com/monayhq/monay/pkg/reader/jsonl"
)

// Plugin implements the ReaderPlugin interface for JSON-lines input.
type Plugin struct{}

// Name returns the plugin name.
func (p *Plugin) Name() string {
	return "jsonl"
}

// Description returns a human-readable description.
func (p *Plugin) Description() string {
	return "Read notifications from a newline-delimited JSON file or standard input"
}

// ConfigSchema returns a JSON schema describing the plugin's configuration.
func (p *Plugin) ConfigSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "File to read; \"-\" reads standard input",
				"default":     "-",
			},
		},
	}
}

// NewReader creates a new JSON-lines reader instance.
func (p *Plugin) NewReader(configData json.RawMessage, logger *slog.Logger) (api.Reader, error) {
	var cfg jsonlreader.Config
	if err := json.Unmarshal(configData, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling jsonl config: %w", err)
	}
	return jsonlreader.New(cfg, logger), nil
}

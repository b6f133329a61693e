// Package plugins provides a plugin registry for notification readers and bill stores.
package plugins

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/monayhq/monay/pkg/api"
)

// ReaderPlugin defines the interface for notification reader plugins.
type ReaderPlugin interface {
	// Name returns the plugin name (e.g., "webhook", "jsonl").
	Name() string
	// Description returns a human-readable description.
	Description() string
	// ConfigSchema returns a JSON schema describing the plugin's configuration.
	ConfigSchema() map[string]any
	// NewReader creates a new reader instance with the given config.
	NewReader(config json.RawMessage, logger *slog.Logger) (api.Reader, error)
}

// StorePlugin defines the interface for bill store plugins.
type StorePlugin interface {
	// Name returns the plugin name (e.g., "sqlite", "postgres").
	Name() string
	// Description returns a human-readable description.
	Description() string
	// ConfigSchema returns a JSON schema describing the plugin's configuration.
	ConfigSchema() map[string]any
	// NewStore opens a store with the given config. Times read back are in loc.
	NewStore(ctx context.Context, config json.RawMessage, loc *time.Location, logger *slog.Logger) (api.BillStore, error)
}

// Registry manages available reader and store plugins.
type Registry struct {
	readers map[string]ReaderPlugin
	stores  map[string]StorePlugin
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		readers: make(map[string]ReaderPlugin),
		stores:  make(map[string]StorePlugin),
	}
}

// RegisterReader registers a reader plugin.
func (r *Registry) RegisterReader(plugin ReaderPlugin) error {
	name := plugin.Name()
	if _, exists := r.readers[name]; exists {
		return fmt.Errorf("reader plugin %q already registered", name)
	}
	r.readers[name] = plugin
	return nil
}

// RegisterStore registers a store plugin.
func (r *Registry) RegisterStore(plugin StorePlugin) error {
	name := plugin.Name()
	if _, exists := r.stores[name]; exists {
		return fmt.Errorf("store plugin %q already registered", name)
	}
	r.stores[name] = plugin
	return nil
}

// GetReader returns a reader plugin by name.
func (r *Registry) GetReader(name string) (ReaderPlugin, error) {
	plugin, exists := r.readers[name]
	if !exists {
		return nil, fmt.Errorf("reader plugin %q not found", name)
	}
	return plugin, nil
}

// GetStore returns a store plugin by name.
func (r *Registry) GetStore(name string) (StorePlugin, error) {
	plugin, exists := r.stores[name]
	if !exists {
		return nil, fmt.Errorf("store plugin %q not found", name)
	}
	return plugin, nil
}

// ListReaders returns all registered reader plugins sorted by name.
func (r *Registry) ListReaders() []ReaderPlugin {
	plugins := make([]ReaderPlugin, 0, len(r.readers))
	for _, plugin := range r.readers {
		plugins = append(plugins, plugin)
	}
	sort.Slice(plugins, func(i, j int) bool { return plugins[i].Name() < plugins[j].Name() })
	return plugins
}

// ListStores returns all registered store plugins sorted by name.
func (r *Registry) ListStores() []StorePlugin {
	plugins := make([]StorePlugin, 0, len(r.stores))
	for _, plugin := range r.stores {
		plugins = append(plugins, plugin)
	}
	sort.Slice(plugins, func(i, j int) bool { return plugins[i].Name() < plugins[j].Name() })
	return plugins
}

// CreateReader creates a reader instance from a plugin.
func (r *Registry) CreateReader(name string, config json.RawMessage, logger *slog.Logger) (api.Reader, error) {
	plugin, err := r.GetReader(name)
	if err != nil {
		return nil, err
	}
	return plugin.NewReader(orEmpty(config), logger)
}

// CreateStore creates a store instance from a plugin.
func (r *Registry) CreateStore(ctx context.Context, name string, config json.RawMessage, loc *time.Location, logger *slog.Logger) (api.BillStore, error) {
	plugin, err := r.GetStore(name)
	if err != nil {
		return nil, err
	}
	return plugin.NewStore(ctx, orEmpty(config), loc, logger)
}

func orEmpty(config json.RawMessage) json.RawMessage {
	if len(config) == 0 {
		return json.RawMessage(`{}`)
	}
	return config
}

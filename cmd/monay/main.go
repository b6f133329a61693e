// Command monay tracks bills from payment notifications.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/monayhq/monay/internal/plugins"
	"github.com/monayhq/monay/pkg/logging"
	jsonlplugin "github.com/monayhq/monay/pkg/plugins/readers/jsonl"
	webhookplugin "github.com/monayhq/monay/pkg/plugins/readers/webhook"
	postgresplugin "github.com/monayhq/monay/pkg/plugins/stores/postgres"
	sqliteplugin "github.com/monayhq/monay/pkg/plugins/stores/sqlite"
)

func main() {
	logger := logging.Setup(logging.DefaultConfig())

	registry, err := newRegistry()
	if err != nil {
		logger.Error("failed to register plugins", "error", err)
		os.Exit(1)
	}

	// Setup context with cancellation on SIGINT/SIGTERM
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	err = newRootCmd(registry, logger).ExecuteContext(ctx)
	cancel()
	if err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func newRegistry() (*plugins.Registry, error) {
	registry := plugins.NewRegistry()

	for _, p := range []plugins.ReaderPlugin{&webhookplugin.Plugin{}, &jsonlplugin.Plugin{}} {
		if err := registry.RegisterReader(p); err != nil {
			return nil, err
		}
	}
	for _, p := range []plugins.StorePlugin{&sqliteplugin.Plugin{}, &postgresplugin.Plugin{}} {
		if err := registry.RegisterStore(p); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

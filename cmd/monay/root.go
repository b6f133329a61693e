package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/monayhq/monay/internal/daemon"
	"github.com/monayhq/monay/internal/plugins"
	"github.com/monayhq/monay/pkg/config"
)

const timeLayout = "2006-01-02 15:04"

type cli struct {
	registry   *plugins.Registry
	logger     *slog.Logger
	configPath string
}

func newRootCmd(registry *plugins.Registry, logger *slog.Logger) *cobra.Command {
	c := &cli{registry: registry, logger: logger}

	root := &cobra.Command{
		Use:   "monay",
		Short: "Notification-driven bill tracker",
		Long: `monay turns payment notifications from Alipay, WeChat and bank apps into
income, expense and transfer records, and summarizes them by month or year.

Settings come from MONAY_* environment variables, optionally layered over a
JSON file given with --config.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "JSON config file with MONAY_* keys")

	root.AddCommand(
		c.serveCmd(),
		c.ingestCmd(),
		c.parseCmd(),
		c.addCmd(),
		c.listCmd(),
		c.deleteCmd(),
		c.statsCmd(),
		c.exportCmd(),
		c.pluginsCmd(),
	)
	return root
}

func (c *cli) loadConfig() (config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// withApp opens the configured store for the duration of fn.
func (c *cli) withApp(ctx context.Context, fn func(*daemon.Runner, *daemon.App) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	runner := daemon.New(c.registry, c.logger)
	app, err := runner.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			c.logger.Error("closing store", "error", err)
		}
	}()
	return fn(runner, app)
}

func formatTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(timeLayout)
}

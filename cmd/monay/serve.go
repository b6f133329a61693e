package main

import (
	"github.com/spf13/cobra"

	"github.com/monayhq/monay/internal/daemon"
)

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the notification reader, pipeline and HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			c.logger.Info("configuration loaded",
				"reader", cfg.Reader,
				"store", cfg.Store,
				"readers_available", len(c.registry.ListReaders()),
				"stores_available", len(c.registry.ListStores()),
			)
			for _, info := range c.pluginInfos() {
				c.logger.Debug("plugin available", "kind", info.Kind, "name", info.Name, "description", info.Description)
			}
			return daemon.New(c.registry, c.logger).Run(cmd.Context(), cfg)
		},
	}
}

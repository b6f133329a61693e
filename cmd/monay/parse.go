package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/monayhq/monay/internal/daemon"
)

func (c *cli) parseCmd() *cobra.Command {
	var source, title string

	cmd := &cobra.Command{
		Use:   "parse BODY...",
		Short: "Show how a notification would be parsed without storing it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			p, err := daemon.BuildParser(cfg)
			if err != nil {
				return err
			}

			tx := p.Parse(source, title, strings.Join(args, " "))

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(tx)
		},
	}

	cmd.Flags().StringVarP(&source, "source", "s", "", "Package id of the posting app (e.g., com.tencent.mm)")
	cmd.Flags().StringVarP(&title, "title", "t", "测试通知", "Notification title")
	_ = cmd.MarkFlagRequired("source")
	return cmd
}

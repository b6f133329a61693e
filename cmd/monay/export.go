package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/monayhq/monay/internal/daemon"
	"github.com/monayhq/monay/pkg/export"
)

func (c *cli) exportCmd() *cobra.Command {
	var (
		format string
		output string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export bills as CSV or JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd.Context(), func(_ *daemon.Runner, app *daemon.App) error {
				exporter, err := export.New(format, app.Location)
				if err != nil {
					return err
				}

				bills, err := app.Ledger.List(cmd.Context(), limit)
				if err != nil {
					return err
				}

				var dst io.Writer = cmd.OutOrStdout()
				if output != "" && output != "-" {
					f, err := os.Create(output)
					if err != nil {
						return fmt.Errorf("creating %s: %w", output, err)
					}
					defer f.Close()
					dst = f
				}

				if err := exporter.Export(dst, bills); err != nil {
					return fmt.Errorf("exporting bills: %w", err)
				}
				c.logger.Info("bills exported", "format", format, "count", len(bills), "output", output)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "csv", "Output format: csv or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: standard output)")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Maximum number of bills (0 for all)")
	return cmd
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/monayhq/monay/internal/daemon"
	"github.com/monayhq/monay/pkg/ingest"
	"github.com/monayhq/monay/pkg/reader/jsonl"
)

func (c *cli) ingestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest [file|-]",
		Short: "Record bills from a file of JSON-lines notifications",
		Long: `Read one notification per line, {"source","title","body"}, from a file or
standard input and record every recognized payment.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}

			return c.withApp(cmd.Context(), func(runner *daemon.Runner, app *daemon.App) error {
				var reader *jsonl.Reader
				if path == "-" {
					reader = jsonl.NewFromReader(cmd.InOrStdin(), c.logger)
				} else {
					reader = jsonl.New(jsonl.Config{Path: path}, c.logger)
				}

				tally, err := runner.Ingest(cmd.Context(), app, reader)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "stored %d, unparsed %d, rejected %d, failed %d\n",
					tally[ingest.OutcomeStored],
					tally[ingest.OutcomeUnparsed],
					tally[ingest.OutcomeRejected],
					tally[ingest.OutcomeFailed],
				)
				return nil
			})
		},
	}
}

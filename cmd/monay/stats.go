package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/monayhq/monay/internal/daemon"
	"github.com/monayhq/monay/pkg/api"
	"github.com/monayhq/monay/pkg/stats"
)

func (c *cli) statsCmd() *cobra.Command {
	var year, month int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize a month or a year",
		Long: `Print per-direction totals and per-category sums for one period.
Without flags the current month is used; --year alone selects the whole year.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd.Context(), func(_ *daemon.Runner, app *daemon.App) error {
				period := resolvePeriod(time.Now().In(app.Location), year, month, cmd.Flags().Changed("year"))
				if err := period.Validate(); err != nil {
					return err
				}

				summary, err := app.Stats.Summarize(cmd.Context(), period)
				if err != nil {
					return err
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
				fmt.Fprintf(tw, "%s\t\n", period)
				for _, dir := range api.Directions {
					fmt.Fprintf(tw, "%s\t%s\t\n", dir.Label(), summary.Total(dir).StringFixed(2))
				}
				fmt.Fprintf(tw, "结余\t%s\t\n", summary.Net().StringFixed(2))
				for _, dir := range api.Directions {
					sums := summary.Categories[dir]
					if len(sums) == 0 {
						continue
					}
					fmt.Fprintf(tw, "\t\t\n%s\t\t\n", dir.Label())
					for _, s := range sums {
						fmt.Fprintf(tw, "%s\t%s\t\n", s.Category.Label(), s.Amount.StringFixed(2))
					}
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().IntVarP(&year, "year", "y", 0, "Year (default: current)")
	cmd.Flags().IntVarP(&month, "month", "m", 0, "Month 1-12 (default: current month unless --year is given)")
	return cmd
}

// resolvePeriod defaults to the month containing now. A year given without a
// month selects that whole year.
func resolvePeriod(now time.Time, year, month int, yearSet bool) stats.Period {
	if !yearSet && month == 0 {
		return stats.MonthOf(now)
	}
	p := stats.Period{Year: now.Year(), Month: time.Month(month)}
	if yearSet {
		p.Year = year
	}
	return p
}

package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/monayhq/monay/internal/daemon"
	"github.com/monayhq/monay/pkg/api"
	"github.com/monayhq/monay/pkg/ledger"
)

func (c *cli) addCmd() *cobra.Command {
	var (
		direction string
		category  string
		amount    string
		at        string
		note      string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a bill by hand",
		Example: `  monay add --direction expense --category food --amount 23.50 --note 午饭
  monay add -d 收入 -k 工资 -a 8000 --at "2024-05-10 09:00"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := api.ParseDirection(direction)
			if err != nil {
				return err
			}

			return c.withApp(cmd.Context(), func(_ *daemon.Runner, app *daemon.App) error {
				entry := ledger.ManualEntry{
					Direction: dir,
					Category:  category,
					Amount:    amount,
					Note:      note,
				}
				if at != "" {
					t, err := time.ParseInLocation(timeLayout, at, app.Location)
					if err != nil {
						return fmt.Errorf("parsing --at (want %q): %w", timeLayout, err)
					}
					entry.OccurredAt = t
				}

				bill, err := app.Ledger.AddManual(cmd.Context(), entry)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added bill %d: %s %s ¥%s\n",
					bill.ID, bill.Direction.Label(), bill.Category.Label(), bill.Amount.StringFixed(2))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&direction, "direction", "d", string(api.Expense), "income, expense or transfer (收入/支出/转账)")
	cmd.Flags().StringVarP(&category, "category", "k", "", "Category name or label (e.g., food, 餐饮)")
	cmd.Flags().StringVarP(&amount, "amount", "a", "", "Amount in yuan, e.g. 23.50")
	cmd.Flags().StringVar(&at, "at", "", "Time of the bill as \"YYYY-MM-DD HH:MM\" (default: now)")
	cmd.Flags().StringVarP(&note, "note", "n", "", "Free-text note")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func (c *cli) listCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List bills, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd.Context(), func(_ *daemon.Runner, app *daemon.App) error {
				bills, err := app.Ledger.List(cmd.Context(), limit)
				if err != nil {
					return err
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tTIME\tDIRECTION\tCATEGORY\tAMOUNT\tNOTE")
				for _, b := range bills {
					note := ""
					if b.Note != nil {
						note = *b.Note
					}
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
						b.ID,
						formatTime(b.OccurredAt, app.Location),
						b.Direction.Label(),
						b.Category.Label(),
						b.Amount.StringFixed(2),
						firstLine(note),
					)
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum number of bills (0 for all)")
	return cmd
}

func (c *cli) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a bill",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid bill id %q", args[0])
			}

			return c.withApp(cmd.Context(), func(_ *daemon.Runner, app *daemon.App) error {
				if err := app.Ledger.Delete(cmd.Context(), id); err != nil {
					if errors.Is(err, api.ErrBillNotFound) {
						return fmt.Errorf("bill %d not found", id)
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted bill %d\n", id)
				return nil
			})
		},
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

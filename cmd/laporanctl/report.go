package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"laporan/internal/cli"
	"laporan/internal/core"
	"laporan/internal/services"
)

func summaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary [period]",
		Short: "Print every menu's balances for a month",
		Long: `Print opening balance, income, expense and closing balance of every menu
for a YYYY-MM period. The current month is used when no period is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			period, err := periodArg(args)
			if err != nil {
				return err
			}
			be := cli.OpenBackend(cmd.Context(), logger, cfg)
			defer be.Cleanup()

			d, err := services.NewLedgerService(be.Store, nil, logger).Dashboard(cmd.Context(), period)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintf(tw, "MENU\tSALDO AWAL\tMASUK\tKELUAR\tSALDO AKHIR\t\n")
			for _, cs := range d.Categories {
				s := cs.Summary
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n", cs.Category.Label,
					s.Opening.Rupiah(), s.IncomeTotal.Rupiah(), s.ExpenseTotal.Rupiah(), s.Closing.Rupiah())
			}
			t := d.Total
			fmt.Fprintf(tw, "TOTAL %s\t%s\t%s\t%s\t%s\t\n", d.Period.Period(),
				t.Opening.Rupiah(), t.IncomeTotal.Rupiah(), t.ExpenseTotal.Rupiah(), t.Closing.Rupiah())
			return tw.Flush()
		},
	}
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <menu-id> [period]",
		Short: "Write a menu's monthly report as an .xlsx file",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			period, err := periodArg(args[1:])
			if err != nil {
				return err
			}
			dir, _ := cmd.Flags().GetString("dir")

			be := cli.OpenBackend(cmd.Context(), logger, cfg)
			defer be.Cleanup()

			report, err := services.NewLedgerService(be.Store, nil, logger).Export(cmd.Context(), args[0], period)
			if err != nil {
				return err
			}

			path := filepath.Join(dir, report.Filename())
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create %s: %w", path, err)
			}
			if _, err := report.WriteTo(f); err != nil {
				f.Close()
				return fmt.Errorf("write %s: %w", path, err)
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d entries)\n", path, len(report.Entries))
			return nil
		},
	}
	cmd.Flags().String("dir", ".", "output directory")
	return cmd
}

func periodArg(args []string) (core.Date, error) {
	if len(args) == 0 || args[0] == "" {
		now := time.Now()
		return core.NewDate(now.Year(), int(now.Month()), 1), nil
	}
	return core.ParsePeriod(args[0])
}

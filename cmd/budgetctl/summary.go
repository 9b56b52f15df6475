package main

import (
	"fmt"

	"budgetr/internal/budget"
	"budgetr/internal/cli"
	"budgetr/internal/core"

	"github.com/spf13/cobra"
)

func (a *app) summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Dashboard totals and category breakdown",
		Args:  cobra.NoArgs,
		RunE:  a.runSummary,
	}
}

func (a *app) runSummary(cmd *cobra.Command, _ []string) error {
	override := a.frequencyOverride(cmd)
	svc, err := a.service(cmd.Context())
	if err != nil {
		return err
	}
	sum, err := svc.Dashboard(cmd.Context(), override)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintln(out, cli.RenderTitle("BUDGET  "+sum.Label))
	fmt.Fprintln(out)

	fmt.Fprint(out, cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Total Spent", core.FormatMoney(sum.TotalSpent)},
			{"Net Income", core.FormatMoney(sum.NetIncome)},
			{"Remaining", cli.RenderMoney(sum.Remaining)},
			{"---"},
			{"Avg Monthly Spend", core.FormatMoney(sum.AverageMonthly)},
			{"Avg " + sum.Label, core.FormatMoney(budget.ConvertMonthlyAmount(sum.AverageMonthly, sum.Frequency))},
		},
	}))

	if len(sum.Categories) == 0 {
		fmt.Fprintln(out, "\n  No expenditures recorded yet.")
		return nil
	}

	rows := make([][]string, 0, len(sum.Categories))
	for _, c := range sum.Categories {
		rows = append(rows, []string{
			c.Category,
			core.FormatMoney(c.Amount),
			core.FormatPercent(c.Percent),
			cli.RenderShareBar(c.Percent, 20),
		})
	}
	fmt.Fprintln(out)
	fmt.Fprint(out, cli.RenderTable(cli.Table{
		Title:   "By Category",
		Headers: []string{"Category", "Amount", "Share", ""},
		Rows:    rows,
	}))
	return nil
}

package main

import (
	"fmt"
	"strconv"

	"budgetr/internal/cli"
	"budgetr/internal/core"
	"budgetr/internal/services"

	"github.com/spf13/cobra"
)

func (a *app) projectCmd() *cobra.Command {
	var (
		target     string
		date       string
		useAverage bool
	)

	cmd := &cobra.Command{
		Use:   "project",
		Short: "Project a savings goal against income and spending",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			amount, ok := core.ParseLenient(target)
			if !ok {
				return fmt.Errorf("--target: %q is not a number", target)
			}
			targetDate, err := core.ParseDate(date)
			if err != nil {
				return fmt.Errorf("--date: %w", err)
			}

			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			snap, err := svc.Settings(cmd.Context())
			if err != nil {
				return err
			}
			p, err := svc.ProjectGoal(cmd.Context(), services.GoalRequest{
				TargetAmount:       amount,
				TargetDate:         targetDate,
				UseAverageExpenses: useAverage,
			})
			if err != nil {
				return err
			}

			rows := [][]string{
				{"Target", core.FormatMoney(amount)},
				{"Saved", core.FormatMoney(snap.CurrentSavings)},
				{"Progress", cli.RenderProgressBar(snap.CurrentSavings, amount, 20)},
				{"---"},
				{"Months Remaining", strconv.Itoa(p.MonthsRemaining)},
				{"Amount Remaining", core.FormatMoney(p.AmountRemaining)},
				{"Required Monthly", core.FormatMoney(p.RequiredMonthly)},
			}
			if useAverage {
				rows = append(rows,
					[]string{"Avg Monthly Spend", core.FormatMoney(p.AverageMonthly)},
					[]string{"Available Monthly", core.FormatMoney(p.EstimatedAvailableMonthly)},
				)
			}
			rows = append(rows, []string{"---"}, []string{"Status", cli.RenderStatus(p.OnTrack)})
			if !p.OnTrack && p.Shortfall.IsPositive() {
				rows = append(rows, []string{"Shortfall", cli.RenderMoney(p.Shortfall.Neg())})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out)
			fmt.Fprintln(out, cli.RenderTitle("GOAL  "+targetDate.Format("2006-01-02")))
			fmt.Fprintln(out)
			fmt.Fprint(out, cli.RenderTable(cli.Table{
				Headers: []string{"Metric", "Value"},
				Rows:    rows,
			}))
			return nil
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "", "Goal amount")
	cmd.Flags().StringVarP(&date, "date", "d", "", "Goal date as YYYY-MM-DD")
	cmd.Flags().BoolVar(&useAverage, "use-average", false, "Compare against income minus average spending")
	_ = cmd.MarkFlagRequired("target")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

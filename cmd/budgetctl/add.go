package main

import (
	"fmt"

	"budgetr/internal/core"

	"github.com/spf13/cobra"
)

func (a *app) addCmd() *cobra.Command {
	var (
		description string
		amount      string
		category    string
		priority    int
		date        string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a monthly expenditure",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			amt, err := core.ParseAmount(amount)
			if err != nil {
				return fmt.Errorf("--amount: %w", err)
			}
			e := core.Expenditure{
				Description: description,
				Amount:      amt,
				Category:    category,
				Priority:    priority,
			}
			if date != "" {
				if e.Date, err = core.ParseDate(date); err != nil {
					return fmt.Errorf("--date: %w", err)
				}
			}

			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			saved, err := svc.AddExpenditure(cmd.Context(), e)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  Added %s  %s  %s\n",
				saved.ID, saved.Description, core.FormatMoney(saved.Amount))
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "What the money is for")
	cmd.Flags().StringVarP(&amount, "amount", "a", "", "Monthly amount, e.g. 12.50")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Category (default Uncategorized)")
	cmd.Flags().IntVarP(&priority, "priority", "p", core.DefaultPriority, "Sort priority, lower first")
	cmd.Flags().StringVar(&date, "date", "", "Date as YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

package main

import (
	"fmt"
	"strconv"

	"budgetr/internal/cli"
	"budgetr/internal/core"

	"github.com/spf13/cobra"
)

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List expenditures at the display frequency",
		Args:    cobra.NoArgs,
		RunE:    a.runList,
	}
}

func (a *app) runList(cmd *cobra.Command, _ []string) error {
	override := a.frequencyOverride(cmd)
	svc, err := a.service(cmd.Context())
	if err != nil {
		return err
	}
	records, f, err := svc.DisplayExpenditures(cmd.Context(), override)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(out, "\n  No expenditures recorded yet.")
		fmt.Fprintln(out, "  Add one with: budgetctl add --description Rent --amount 1200")
		return nil
	}

	rows := make([][]string, 0, len(records))
	for _, e := range records {
		rows = append(rows, []string{
			e.ID,
			e.Date.Format("2006-01-02"),
			e.Description,
			e.CategoryOrDefault(),
			strconv.Itoa(e.Priority),
			core.FormatMoney(e.Amount),
		})
	}

	fmt.Fprintln(out)
	fmt.Fprint(out, cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("Expenditures (%s)", f.Label()),
		Headers: []string{"ID", "Date", "Description", "Category", "Priority", "Amount"},
		Rows:    rows,
	}))
	return nil
}

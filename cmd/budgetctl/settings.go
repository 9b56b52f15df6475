package main

import (
	"fmt"

	"budgetr/internal/cli"
	"budgetr/internal/core"
	"budgetr/internal/settings"

	"github.com/spf13/cobra"
)

func (a *app) settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change budget settings",
		Args:  cobra.NoArgs,
		RunE:  a.runSettingsGet,
	}

	get := &cobra.Command{
		Use:   "get",
		Short: "Show every setting",
		Args:  cobra.NoArgs,
		RunE:  a.runSettingsGet,
	}

	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: fmt.Sprintf("Change a setting (%s, %s, %s)", settings.KeyFrequency, settings.KeyNetMonthlyIncome, settings.KeyCurrentSavings),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			v, err := svc.UpdateSetting(cmd.Context(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("set %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %s = %s\n", args[0], v)
			return nil
		},
	}

	cmd.AddCommand(get, set)
	return cmd
}

func (a *app) runSettingsGet(cmd *cobra.Command, _ []string) error {
	svc, err := a.service(cmd.Context())
	if err != nil {
		return err
	}
	snap, err := svc.Settings(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprint(out, cli.RenderTable(cli.Table{
		Title:   "Settings",
		Headers: []string{"Key", "Value"},
		Rows: [][]string{
			{settings.KeyFrequency, fmt.Sprintf("%s (%s)", snap.Frequency, snap.Frequency.Label())},
			{settings.KeyNetMonthlyIncome, core.FormatMoney(snap.NetMonthlyIncome)},
			{settings.KeyCurrentSavings, core.FormatMoney(snap.CurrentSavings)},
		},
	}))
	return nil
}

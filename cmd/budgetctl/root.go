package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"budgetr/internal/amqp"
	"budgetr/internal/cli"
	"budgetr/internal/core"
	applog "budgetr/internal/log"
	"budgetr/internal/services"

	"github.com/spf13/cobra"
)

// opener builds the service used by every subcommand. The returned func
// releases its resources.
type opener func(ctx context.Context, verbose bool) (*services.BudgetService, func(), error)

type app struct {
	open      opener
	svc       *services.BudgetService
	close     func()
	verbose   bool
	frequency string
}

// run executes budgetctl with args and releases the stores afterwards.
func run(ctx context.Context, open opener, args []string, stdout, stderr io.Writer) error {
	a := &app{open: open}
	defer a.shutdown()

	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "budgetctl",
		Short:        "Budget tracking from the terminal",
		Long:         "Record expenditures, inspect the dashboard and project savings goals against the configured stores.",
		SilenceUsage: true,
		RunE:         a.runSummary,
	}

	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log store activity to stderr")
	root.PersistentFlags().StringVarP(&a.frequency, "frequency", "f", "", "Display frequency (month, year, biweekly, weekly)")

	root.AddCommand(
		a.summaryCmd(),
		a.listCmd(),
		a.addCmd(),
		a.deleteCmd(),
		a.settingsCmd(),
		a.projectCmd(),
	)
	return root
}

// service opens the stores on first use so that help output needs no backend.
func (a *app) service(ctx context.Context) (*services.BudgetService, error) {
	if a.svc != nil {
		return a.svc, nil
	}
	svc, closeFn, err := a.open(ctx, a.verbose)
	if err != nil {
		return nil, err
	}
	a.svc, a.close = svc, closeFn
	return svc, nil
}

func (a *app) shutdown() {
	if a.close != nil {
		a.close()
	}
}

// frequencyOverride reads --frequency. Empty means the stored setting.
func (a *app) frequencyOverride(cmd *cobra.Command) core.Frequency {
	f := core.ParseFrequency(a.frequency)
	if f != "" && !f.IsKnown() {
		fmt.Fprintf(cmd.ErrOrStderr(), "  Unknown frequency %q, showing monthly amounts\n", a.frequency)
	}
	return f
}

// openFromEnv wires the service the same way cmd/budgetr does.
func openFromEnv(ctx context.Context, verbose bool) (*services.BudgetService, func(), error) {
	cli.LoadEnvFile()
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return nil, nil, err
	}
	if !verbose {
		cfg.LogLevel = "warn"
	}
	logger := cli.SetupLogger(cfg, applog.ComponentCLI, os.Stderr)

	res, err := cli.OpenBackend(ctx, logger, cfg)
	if err != nil {
		return nil, nil, err
	}
	closers := []func(){func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Failed to close stores", applog.FieldError, err)
		}
	}}

	var opts []services.Option
	if strings.TrimSpace(cfg.AMQPURL) != "" {
		publisher, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, change events disabled", applog.FieldError, err)
		} else {
			closers = append(closers, func() { _ = publisher.Close() })
			opts = append(opts, services.WithPublisher(publisher))
		}
	}

	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	return services.NewBudgetService(res.Records, res.Settings, opts...), closeAll, nil
}

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"SelfEarnBot/internal/app"
	"SelfEarnBot/internal/config"
	"SelfEarnBot/internal/logging"
	"SelfEarnBot/internal/report"
)

type options struct {
	once   bool
	report bool
	cycles int
}

func parseFlags(fs *flag.FlagSet, args []string) (options, error) {
	var o options
	fs.BoolVar(&o.once, "once", false, "run a single cycle and exit")
	fs.BoolVar(&o.report, "report", false, "print the performance report and exit")
	fs.IntVar(&o.cycles, "cycles", 0, "stop after N cycles (0 keeps the configured limit)")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if o.cycles < 0 {
		return options{}, fmt.Errorf("-cycles must be non-negative")
	}
	return o, nil
}

func main() {
	opts, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if opts.cycles > 0 {
		cfg.Scheduler.MaxCycles = opts.cycles
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("application init failed", "error", err)
		os.Exit(1)
	}

	code := 0
	if err := run(ctx, application, opts, os.Stdout); err != nil {
		logger.Error("application stopped", "error", err)
		code = 1
	}
	if err := application.Close(); err != nil {
		logger.Warn("close failed", "error", err)
	}
	os.Exit(code)
}

func run(ctx context.Context, application *app.Application, opts options, out io.Writer) error {
	switch {
	case opts.report:
		rep, err := application.Report(ctx)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, report.Render(rep))
		return err
	case opts.once:
		_, err := application.RunOnce(ctx)
		return err
	default:
		return application.Run(ctx)
	}
}

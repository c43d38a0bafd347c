package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/joseph-ayodele/receipt-ledger/internal/cli"
	"github.com/joseph-ayodele/receipt-ledger/internal/export"
)

func main() {
	os.Exit(run())
}

func run() int {
	fs := ff.NewFlagSet("ledger-export")
	base := cli.RegisterBase(fs)
	src := fs.StringLong("ledger", "", "ledger to read (CSV or XLSX); defaults to the configured CSV, then XLSX")
	out := fs.StringLong("out", "expense_report_export.xlsx", "output workbook")
	from := fs.StringLong("from", "", "first date to include, YYYY-MM-DD")
	to := fs.StringLong("to", "", "last date to include, YYYY-MM-DD (defaults to today when --from is set)")

	if err := ff.Parse(fs, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		if errors.Is(err, ff.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}

	logger, err := base.Logger(os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}
	cfg, err := base.Config()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return 2
	}

	path := *src
	if path == "" {
		path = cfg.Ledger.CSVPath
	}
	if path == "" {
		path = cfg.Ledger.XLSXPath
	}
	if path == "" {
		fmt.Fprintln(os.Stderr, "ERROR: --ledger is required")
		return 2
	}

	var window export.Window
	if window.From, err = parseDay(*from); err != nil {
		logger.Error("invalid --from", "value", *from, "error", err)
		return 2
	}
	if window.To, err = parseDay(*to); err != nil {
		logger.Error("invalid --to", "value", *to, "error", err)
		return 2
	}
	if window.From != nil && window.To != nil && window.To.Before(*window.From) {
		logger.Error("--to is before --from", "from", *from, "to", *to)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	recs, err := export.ReadLedger(path)
	if err != nil {
		logger.Error("failed to read ledger", "path", path, "error", err)
		return 1
	}
	data, err := export.NewService(logger).ExportXLSX(ctx, recs, window)
	if err != nil {
		logger.Error("export failed", "error", err)
		return 1
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		logger.Error("failed to write report", "path", *out, "error", err)
		return 1
	}
	logger.Info("report written", "path", *out, "source", path)
	return 0
}

func parseDay(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

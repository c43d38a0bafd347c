package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/joseph-ayodele/receipt-ledger/internal/cli"
	"github.com/joseph-ayodele/receipt-ledger/internal/common"
	"github.com/joseph-ayodele/receipt-ledger/internal/ingest"
	"github.com/joseph-ayodele/receipt-ledger/internal/pipeline"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	os.Exit(run())
}

func run() int {
	fs := ff.NewFlagSet("receipt-batch")
	base := cli.RegisterBase(fs)
	pipeFlags := cli.RegisterPipeline(fs)
	batchFlags := cli.RegisterBatch(fs)

	if err := ff.Parse(fs, os.Args[1:]); err != nil {
		printError("%s\n", ffhelp.Flags(fs))
		if errors.Is(err, ff.ErrHelp) {
			return 0
		}
		printError("error: %v\n", err)
		return 2
	}

	logger, err := base.Logger(os.Stderr)
	if err != nil {
		printError("error: %v\n", err)
		return 2
	}

	cfg, err := base.Config()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return 2
	}
	pipeFlags.Apply(cfg)
	batchFlags.Apply(cfg)
	if args := fs.GetArgs(); len(args) > 0 {
		cfg.Batch.Dir = args[0]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = common.WithRunID(ctx, common.NewRunID())
	logger = logger.With("run_id", common.RunIDFromContext(ctx))

	built, err := pipeline.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to set up pipeline", "error", err)
		return 2
	}
	defer func() {
		if err := built.Close(); err != nil {
			logger.Error("failed to release resources", "error", err)
		}
	}()

	opts := ingest.Options{
		Extensions: cfg.Batch.Extensions,
		Recursive:  cfg.Batch.Recursive,
		SkipHidden: cfg.Batch.SkipHidden,
	}

	// Start the watcher before the initial scan so files dropped in meanwhile are seen
	var events <-chan string
	if *batchFlags.Watch {
		events, _, err = ingest.Watch(ctx, ingest.WatchConfig{
			Root:     cfg.Batch.Dir,
			Options:  opts,
			Debounce: *batchFlags.Debounce,
		}, logger)
		if err != nil {
			logger.Error("failed to watch receipt directory", "dir", cfg.Batch.Dir, "error", err)
			return 1
		}
	}

	paths, _, err := ingest.Discover(cfg.Batch.Dir, opts, logger)
	if err != nil {
		logger.Error("failed to list receipts", "dir", cfg.Batch.Dir, "error", err)
		return 1
	}

	report := built.Processor.Run(ctx, paths)
	pipeline.WriteSummary(os.Stdout, report)

	if events != nil && ctx.Err() == nil {
		followed := built.Processor.Follow(ctx, events)
		pipeline.WriteSummary(os.Stdout, followed)
		report.Outcomes = append(report.Outcomes, followed.Outcomes...)
	}

	if report.Failed() {
		return 1
	}
	return 0
}

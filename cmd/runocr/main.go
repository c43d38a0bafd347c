package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/joseph-ayodele/receipt-ledger/internal/cli"
	"github.com/joseph-ayodele/receipt-ledger/internal/entity"
	"github.com/joseph-ayodele/receipt-ledger/internal/ocr"
	"github.com/joseph-ayodele/receipt-ledger/internal/pipeline"
)

type result struct {
	Path       string               `json:"path"`
	SHA256     string               `json:"sha256"`
	Confidence float64              `json:"confidence"`
	DurationMS int64                `json:"duration_ms"`
	Missing    []string             `json:"missing,omitempty"`
	Record     entity.ExpenseRecord `json:"record"`
}

// runocr prints what receipt-batch would write for one receipt, without touching any
// ledger or journal.
func main() {
	os.Exit(run())
}

func run() int {
	fs := ff.NewFlagSet("runocr")
	base := cli.RegisterBase(fs)
	pipeFlags := cli.RegisterPipeline(fs)

	if err := ff.Parse(fs, os.Args[1:]); err != nil || len(fs.GetArgs()) != 1 {
		fmt.Fprintf(os.Stderr, "usage: runocr [flags] <receipt>\n\n%s\n", ffhelp.Flags(fs))
		if err != nil && !errors.Is(err, ff.ErrHelp) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		return 2
	}
	path := fs.GetArgs()[0]

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
	pipeFlags.Apply(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	extractor, err := pipeline.NewExtractor(cfg.Extract)
	if err != nil {
		logger.Error("invalid extraction settings", "error", err)
		return 2
	}
	stage, closers, err := pipeline.NewOCRStageFromConfig(ctx, cfg.OCR, logger)
	if err != nil {
		logger.Error("failed to set up ocr", "error", err)
		return 2
	}
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Error("failed to release ocr resources", "error", err)
			}
		}
	}()

	start := time.Now()
	sum, err := ocr.HashFile(path)
	if err != nil {
		logger.Error("failed to read receipt", "path", path, "error", err)
		return 1
	}
	res, err := stage.Run(ctx, path, sum)
	if err != nil {
		logger.Error("text extraction failed", "path", path, "error", err, "duration_ms", time.Since(start).Milliseconds())
		return 1
	}

	rec := extractor.Extract(res.Text)
	out := result{
		Path:       path,
		SHA256:     sum,
		Confidence: res.Confidence,
		DurationMS: time.Since(start).Milliseconds(),
		Missing:    rec.MissingFields(),
		Record:     rec,
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		logger.Error("failed to write result", "error", err)
		return 1
	}
	return 0
}

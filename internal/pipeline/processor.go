// Package pipeline runs receipts through OCR, field extraction and the ledgers, one at a
// time, and reports what happened to each.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/receipt-ledger/constants"
	"github.com/joseph-ayodele/receipt-ledger/internal/common"
	"github.com/joseph-ayodele/receipt-ledger/internal/entity"
	"github.com/joseph-ayodele/receipt-ledger/internal/extract"
	"github.com/joseph-ayodele/receipt-ledger/internal/journal"
	"github.com/joseph-ayodele/receipt-ledger/internal/ledger"
	"github.com/joseph-ayodele/receipt-ledger/internal/ocr"
)

// Ledger is the fan-out writer; *ledger.Multi implements it.
type Ledger interface {
	Append(ctx context.Context, rec entity.ExpenseRecord) ([]ledger.TargetResult, error)
}

// Journal remembers processed receipts; *journal.Journal implements it.
type Journal interface {
	Record(ctx context.Context, e journal.Entry) (journal.Entry, error)
	Processed(ctx context.Context, sha256 string) (bool, error)
}

// Outcome is the per-receipt result.
type Outcome struct {
	Path       string
	SHA256     string
	Status     constants.OutcomeStatus
	Record     entity.ExpenseRecord
	Confidence float64
	Missing    []string
	Targets    []ledger.TargetResult
	Err        error
	Duration   time.Duration
}

// Processor coordinates OCR, extraction and ledger writes for one receipt.
type Processor struct {
	logger        *slog.Logger
	ocr           *OCRStage
	extractor     *extract.Extractor
	ledger        Ledger
	journal       Journal // optional
	skipProcessed bool
}

type Options struct {
	Journal       Journal
	SkipProcessed bool // needs Journal
}

func NewProcessor(logger *slog.Logger, stage *OCRStage, extractor *extract.Extractor, l Ledger, opts Options) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		logger:        logger,
		ocr:           stage,
		extractor:     extractor,
		ledger:        l,
		journal:       opts.Journal,
		skipProcessed: opts.SkipProcessed && opts.Journal != nil,
	}
}

// ProcessFile runs one receipt end to end. Any error stays inside the returned Outcome
// (and is also returned for convenience); it never affects other receipts.
func (p *Processor) ProcessFile(ctx context.Context, path string) (Outcome, error) {
	start := time.Now()
	out := Outcome{Path: path}
	ctx = common.WithReceiptPath(ctx, path)
	log := p.logger.With("run_id", common.RunIDFromContext(ctx), "path", path)

	finish := func(status constants.OutcomeStatus, err error) (Outcome, error) {
		out.Status, out.Err = status, err
		out.Duration = time.Since(start)
		switch status {
		case constants.StatusFailed:
			log.Error("receipt failed", "error", err, "duration_ms", out.Duration.Milliseconds())
		case constants.StatusPartial:
			log.Warn("receipt partially written", "error", err, "duration_ms", out.Duration.Milliseconds())
		case constants.StatusOK:
			log.Info("receipt written",
				"vendor", out.Record.Vendor,
				"date", out.Record.DateString(),
				"amount", out.Record.AmountString(),
				"duration_ms", out.Duration.Milliseconds(),
			)
		}
		if status != constants.StatusSkipped {
			p.record(ctx, log, out)
		}
		return out, err
	}

	sum, err := ocr.HashFile(path)
	if err != nil {
		return finish(constants.StatusFailed, fmt.Errorf("%w: %w", common.ErrOCR, err))
	}
	out.SHA256 = sum

	if p.skipProcessed {
		done, err := p.journal.Processed(ctx, sum)
		if err != nil {
			log.Warn("journal lookup failed; processing anyway", "error", err)
		} else if done {
			log.Info("receipt already in ledger; skipping", "sha256", sum)
			return finish(constants.StatusSkipped, nil)
		}
	}

	res, err := p.ocr.Run(ctx, path, sum)
	if err != nil {
		return finish(constants.StatusFailed, err)
	}
	out.Confidence = res.Confidence

	out.Record = p.extractor.Extract(res.Text)
	if out.Missing = out.Record.MissingFields(); len(out.Missing) > 0 {
		log.Info("fields not found in receipt text", "missing", out.Missing)
	}

	out.Targets, err = p.ledger.Append(ctx, out.Record)
	if err != nil {
		var pw *ledger.PartialWriteError
		if errors.As(err, &pw) && !pw.AllFailed() {
			return finish(constants.StatusPartial, err)
		}
		return finish(constants.StatusFailed, err)
	}
	return finish(constants.StatusOK, nil)
}

func (p *Processor) record(ctx context.Context, log *slog.Logger, out Outcome) {
	if p.journal == nil {
		return
	}
	e := journal.Entry{
		RunID:      common.RunIDFromContext(ctx),
		Path:       out.Path,
		SHA256:     out.SHA256,
		Status:     out.Status,
		Vendor:     out.Record.Vendor,
		Date:       out.Record.DateString(),
		Amount:     out.Record.AmountString(),
		Confidence: out.Confidence,
	}
	if out.Err != nil {
		e.Error = out.Err.Error()
	}
	// recorded even when the batch was cancelled mid-receipt
	if _, err := p.journal.Record(context.WithoutCancel(ctx), e); err != nil {
		log.Warn("failed to record receipt in journal", "error", err)
	}
}

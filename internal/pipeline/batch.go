package pipeline

import (
	"context"
	"time"

	"github.com/joseph-ayodele/receipt-ledger/constants"
	"github.com/joseph-ayodele/receipt-ledger/internal/common"
)

// Report collects outcomes for one batch run.
type Report struct {
	RunID     string
	Started   time.Time
	Finished  time.Time
	Outcomes  []Outcome
	Cancelled bool // stopped before every receipt was processed
}

// Count returns the number of outcomes with the given status.
func (r *Report) Count(status constants.OutcomeStatus) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// Failed reports whether any receipt failed or was only partially written.
func (r *Report) Failed() bool {
	return r.Count(constants.StatusFailed) > 0 || r.Count(constants.StatusPartial) > 0
}

func (p *Processor) newReport(ctx context.Context) *Report {
	return &Report{RunID: common.RunIDFromContext(ctx), Started: time.Now()}
}

// Run processes paths in order. Cancelling ctx stops the batch before the next receipt.
func (p *Processor) Run(ctx context.Context, paths []string) *Report {
	report := p.newReport(ctx)
	p.logger.Info("batch started", "run_id", report.RunID, "receipts", len(paths))
	for i, path := range paths {
		if ctx.Err() != nil {
			report.Cancelled = true
			p.logger.Warn("batch cancelled", "run_id", report.RunID, "remaining", len(paths)-i)
			break
		}
		out, _ := p.ProcessFile(ctx, path)
		report.Outcomes = append(report.Outcomes, out)
	}
	p.finish(report)
	return report
}

// Follow processes paths as they arrive until the channel closes or ctx is done.
func (p *Processor) Follow(ctx context.Context, paths <-chan string) *Report {
	report := p.newReport(ctx)
	p.logger.Info("watching for receipts", "run_id", report.RunID)
	for {
		select {
		case <-ctx.Done():
			report.Cancelled = true
			p.finish(report)
			return report
		case path, ok := <-paths:
			if !ok {
				p.finish(report)
				return report
			}
			out, _ := p.ProcessFile(ctx, path)
			report.Outcomes = append(report.Outcomes, out)
		}
	}
}

func (p *Processor) finish(r *Report) {
	r.Finished = time.Now()
	p.logger.Info("batch finished",
		"run_id", r.RunID,
		"ok", r.Count(constants.StatusOK),
		"partial", r.Count(constants.StatusPartial),
		"failed", r.Count(constants.StatusFailed),
		"skipped", r.Count(constants.StatusSkipped),
		"duration_ms", r.Finished.Sub(r.Started).Milliseconds(),
	)
}

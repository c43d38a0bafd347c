package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/receipt-ledger/internal/common"
	"github.com/joseph-ayodele/receipt-ledger/internal/entity"
)

// TargetResult is the outcome of one store during a fan-out append.
type TargetResult struct {
	Target string
	Err    error
}

// PartialWriteError reports the targets that failed during a fan-out append. Targets
// listed in Written keep their new row.
type PartialWriteError struct {
	Written []string
	Failed  []TargetResult
}

func (e *PartialWriteError) Error() string {
	parts := make([]string, 0, len(e.Failed))
	for _, f := range e.Failed {
		parts = append(parts, fmt.Sprintf("%s: %v", f.Target, f.Err))
	}
	return fmt.Sprintf("ledger write failed for %d of %d targets (%s)",
		len(e.Failed), len(e.Failed)+len(e.Written), strings.Join(parts, "; "))
}

func (e *PartialWriteError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, f := range e.Failed {
		errs = append(errs, f.Err)
	}
	return errs
}

// AllFailed reports whether no target was written.
func (e *PartialWriteError) AllFailed() bool { return len(e.Written) == 0 }

// Multi appends each record to every configured store.
type Multi struct {
	stores []Store
	logger *slog.Logger
}

func NewMulti(logger *slog.Logger, stores ...Store) *Multi {
	if logger == nil {
		logger = slog.Default()
	}
	return &Multi{stores: stores, logger: logger}
}

// Targets lists the configured ledger files.
func (m *Multi) Targets() []string {
	out := make([]string, len(m.stores))
	for i, s := range m.stores {
		out[i] = s.Target()
	}
	return out
}

// Append writes rec to every store, continuing past failures. The error is a
// *PartialWriteError whenever at least one store failed.
func (m *Multi) Append(ctx context.Context, rec entity.ExpenseRecord) ([]TargetResult, error) {
	if len(m.stores) == 0 {
		return nil, errors.New("no ledger targets configured")
	}
	results := make([]TargetResult, 0, len(m.stores))
	var pw PartialWriteError
	for _, s := range m.stores {
		err := s.Append(ctx, rec)
		results = append(results, TargetResult{Target: s.Target(), Err: err})
		if err != nil {
			m.logger.Error("ledger append failed",
				"target", s.Target(),
				"receipt", common.ReceiptPathFromContext(ctx),
				"error", err,
			)
			pw.Failed = append(pw.Failed, TargetResult{Target: s.Target(), Err: err})
			continue
		}
		pw.Written = append(pw.Written, s.Target())
	}
	if len(pw.Failed) > 0 {
		return results, &pw
	}
	return results, nil
}

// Package export produces date-windowed XLSX expense reports from a ledger.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/receipt-ledger/internal/entity"
)

const reportSheet = "Report"

// Service builds XLSX reports.
type Service struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger, now: time.Now}
}

// Window is an inclusive date range.
// If only From is provided -> From..today.
// If only To is provided   -> beginning..To.
// If neither is provided   -> every record, undated ones included.
type Window struct {
	From *time.Time
	To   *time.Time
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *Service) normalize(w Window) Window {
	var out Window
	if w.From != nil {
		f := dateOnly(*w.From)
		out.From = &f
	}
	if w.To != nil {
		t := dateOnly(*w.To)
		out.To = &t
	}
	if out.From != nil && out.To == nil {
		t := dateOnly(s.now().UTC())
		out.To = &t
	}
	return out
}

// Filter keeps the records inside w, oldest first. Undated records only survive an
// open window.
func (s *Service) Filter(recs []entity.ExpenseRecord, w Window) []entity.ExpenseRecord {
	w = s.normalize(w)
	out := make([]entity.ExpenseRecord, 0, len(recs))
	for _, r := range recs {
		if w.From == nil && w.To == nil {
			out = append(out, r)
			continue
		}
		if r.Date == nil {
			continue
		}
		if w.From != nil && r.Date.Before(*w.From) {
			continue
		}
		if w.To != nil && r.Date.After(*w.To) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Date, out[j].Date
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return a.Before(*b)
	})
	return out
}

// ExportXLSX returns a workbook (as bytes) with the records in w and a total row.
func (s *Service) ExportXLSX(ctx context.Context, recs []entity.ExpenseRecord, w Window) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	rows := s.Filter(recs, w)

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return nil, err
	}

	headers := []interface{}{"Transaction Date", "Vendor", "Amount", "Notes"}
	if err := f.SetSheetRow(reportSheet, "A1", &headers); err != nil {
		return nil, err
	}

	total := decimal.Zero
	row := 2
	for _, r := range rows {
		cells := []interface{}{r.DateString(), r.Vendor, r.AmountString(), r.Notes}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(reportSheet, cell, &cells); err != nil {
			return nil, err
		}
		if r.Amount.Valid {
			total = total.Add(r.Amount.Decimal)
		}
		row++
	}
	footer := []interface{}{"", "Total", total.StringFixed(2), fmt.Sprintf("%d receipts", len(rows))}
	cell, _ := excelize.CoordinatesToCellName(1, row)
	if err := f.SetSheetRow(reportSheet, cell, &footer); err != nil {
		return nil, err
	}

	// Widen a few columns
	_ = f.SetColWidth(reportSheet, "A", "A", 16) // date
	_ = f.SetColWidth(reportSheet, "B", "B", 32) // vendor
	_ = f.SetColWidth(reportSheet, "C", "C", 14) // amount
	_ = f.SetColWidth(reportSheet, "D", "D", 28) // notes

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("expense report exported",
		"rows", len(rows),
		"total", total.StringFixed(2),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

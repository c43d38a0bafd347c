package ledger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/receipt-ledger/internal/common"
	"github.com/joseph-ayodele/receipt-ledger/internal/entity"
)

const defaultSheet = "Expenses"

// XLSXStore is a spreadsheet ledger. Rows go to the end of the first sheet and the
// workbook is rewritten on every append.
type XLSXStore struct {
	path string
	opts Options
}

func NewXLSXStore(path string, opts Options) *XLSXStore {
	if opts.SheetName == "" {
		opts.SheetName = defaultSheet
	}
	return &XLSXStore{path: path, opts: opts}
}

func (s *XLSXStore) Target() string { return s.path }

func (s *XLSXStore) Append(ctx context.Context, rec entity.ExpenseRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateRecord(rec); err != nil {
		return err
	}
	logger := s.opts.logger()

	data, err := os.ReadFile(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read ledger: %w", err)
	}

	wb, err := s.open(data)
	var corrupt *common.CorruptLedgerError
	switch {
	case errors.As(err, &corrupt):
		logger.Warn("xlsx ledger unreadable; discarding previous content",
			"target", s.path,
			"discarded_bytes", len(data),
			"error", err,
		)
		if wb, err = s.newWorkbook(); err != nil {
			return err
		}
	case err != nil:
		logger.Warn("xlsx ledger left untouched", "target", s.path, "error", err)
		return err
	}
	defer func() {
		if cerr := wb.file.Close(); cerr != nil {
			logger.Warn("failed to close workbook", "target", s.path, "error", cerr)
		}
	}()

	if wb.layout != s.opts.Layout() {
		logger.Info("xlsx ledger layout differs from configuration; following the file",
			"target", s.path,
			"raw_text_column", wb.layout.RawText,
		)
	}
	row := s.opts.render(rec, wb.layout)
	cell, err := excelize.CoordinatesToCellName(1, wb.next)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	if err := wb.file.SetSheetRow(wb.sheet, cell, &cells); err != nil {
		return fmt.Errorf("xlsx set row: %w", err)
	}

	if err := writeFileAtomic(s.path, func(w io.Writer) error { return wb.file.Write(w) }); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	logger.Debug("xlsx ledger row appended", "target", s.path, "sheet", wb.sheet, "row", wb.next)
	return nil
}

// workbook is an open ledger positioned at its first free row.
type workbook struct {
	file   *excelize.File
	sheet  string
	next   int
	layout Layout
}

// open parses the ledger bytes. No bytes yield a fresh workbook with the header in row 1.
func (s *XLSXStore) open(data []byte) (*workbook, error) {
	if len(data) == 0 {
		s.opts.logger().Info("creating xlsx ledger", "target", s.path)
		return s.newWorkbook()
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &common.CorruptLedgerError{Path: s.path, Reason: "cannot open workbook", Cause: err}
	}
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		_ = f.Close()
		return nil, &common.CorruptLedgerError{Path: s.path, Reason: "workbook has no sheets"}
	}
	sheet := sheets[0]
	rows, err := f.GetRows(sheet)
	if err != nil {
		_ = f.Close()
		return nil, &common.CorruptLedgerError{Path: s.path, Reason: "cannot read first sheet", Cause: err}
	}

	if len(rows) == 0 {
		if err := s.writeHeader(f, sheet); err != nil {
			_ = f.Close()
			return nil, err
		}
		return &workbook{file: f, sheet: sheet, next: 2, layout: s.opts.Layout()}, nil
	}
	layout, ok := ParseHeader(rows[0])
	if !ok {
		_ = f.Close()
		return nil, unknownLayout(s.path, rows[0])
	}
	return &workbook{file: f, sheet: sheet, next: len(rows) + 1, layout: layout}, nil
}

var columnWidths = []struct {
	col   string
	width float64
}{
	{"A", 12}, // date
	{"B", 28}, // vendor
	{"C", 12}, // amount
	{"D", 24}, // notes
	{"E", 60}, // raw text
}

func (s *XLSXStore) newWorkbook() (*workbook, error) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	if s.opts.SheetName != sheet {
		if err := f.SetSheetName(sheet, s.opts.SheetName); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("rename sheet: %w", err)
		}
		sheet = s.opts.SheetName
	}
	if err := s.writeHeader(f, sheet); err != nil {
		_ = f.Close()
		return nil, err
	}

	for _, c := range columnWidths[:len(s.opts.Header())] {
		if err := f.SetColWidth(sheet, c.col, c.col, c.width); err != nil {
			s.opts.logger().Debug("failed to set column width", "target", s.path, "column", c.col, "error", err)
		}
	}
	return &workbook{file: f, sheet: sheet, next: 2, layout: s.opts.Layout()}, nil
}

func (s *XLSXStore) writeHeader(f *excelize.File, sheet string) error {
	for i, h := range s.opts.Header() {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("xlsx header: %w", err)
		}
	}
	return nil
}

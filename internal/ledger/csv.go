package ledger

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joseph-ayodele/receipt-ledger/internal/common"
	"github.com/joseph-ayodele/receipt-ledger/internal/entity"
)

// CSVStore is a line-oriented ledger. Healthy files are extended in place; only the
// new row's bytes are written.
type CSVStore struct {
	path string
	opts Options
}

func NewCSVStore(path string, opts Options) *CSVStore {
	return &CSVStore{path: path, opts: opts}
}

func (s *CSVStore) Target() string { return s.path }

func (s *CSVStore) Append(ctx context.Context, rec entity.ExpenseRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateRecord(rec); err != nil {
		return err
	}
	logger := s.opts.logger()

	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Info("creating csv ledger", "target", s.path)
		return s.rewrite(rec)
	case err != nil:
		return fmt.Errorf("read ledger: %w", err)
	}

	layout, width, n, err := s.check(data)
	var corrupt *common.CorruptLedgerError
	switch {
	case errors.As(err, &corrupt):
		logger.Warn("csv ledger unreadable; discarding previous content",
			"target", s.path,
			"discarded_bytes", len(data),
			"error", err,
		)
		return s.rewrite(rec)
	case err != nil:
		logger.Warn("csv ledger left untouched", "target", s.path, "error", err)
		return err
	case n < 0:
		return s.rewrite(rec)
	}

	if layout != s.opts.Layout() {
		logger.Info("csv ledger layout differs from configuration; following the file",
			"target", s.path,
			"raw_text_column", layout.RawText,
		)
	}
	row := s.opts.render(rec, layout)
	for len(row) < width {
		row = append(row, "")
	}
	if err := s.appendRow(row, data[len(data)-1] != '\n'); err != nil {
		return err
	}
	logger.Debug("csv ledger row appended", "target", s.path, "rows", n+1)
	return nil
}

// check parses the whole file and returns its layout, the width of its header row and
// the number of data rows. Only a syntax error makes the file corrupt; ragged rows are
// tolerated. A file with no records at all (blank lines or a lone byte-order mark)
// reports -1 rows.
func (s *CSVStore) check(data []byte) (Layout, int, int, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte(bom))))
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return Layout{}, 0, 0, &common.CorruptLedgerError{Path: s.path, Reason: "unparsable csv", Cause: err}
	}
	if len(records) == 0 {
		return Layout{}, 0, -1, nil
	}
	layout, ok := ParseHeader(records[0])
	if !ok {
		return Layout{}, 0, 0, unknownLayout(s.path, records[0])
	}
	return layout, len(records[0]), len(records) - 1, nil
}

func (s *CSVStore) rewrite(rec entity.ExpenseRecord) error {
	row := s.opts.render(rec, s.opts.Layout())
	return writeFileAtomic(s.path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(s.opts.Header()); err != nil {
			return err
		}
		if err := cw.Write(row); err != nil {
			return err
		}
		cw.Flush()
		return cw.Error()
	})
}

func (s *CSVStore) appendRow(row []string, needNewline bool) (err error) {
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return fmt.Errorf("open ledger for append: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close ledger: %w", cerr)
		}
	}()

	if needNewline {
		if _, err := f.WriteString("\n"); err != nil {
			return fmt.Errorf("append newline: %w", err)
		}
	}
	cw := csv.NewWriter(f)
	if err := cw.Write(row); err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	return f.Sync()
}

package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/receipt-ledger/constants"
	"github.com/joseph-ayodele/receipt-ledger/internal/common"
	"github.com/joseph-ayodele/receipt-ledger/internal/entity"
	"github.com/joseph-ayodele/receipt-ledger/internal/ledger"
)

// ReadLedger loads the rows of a CSV or XLSX ledger written by this module.
func ReadLedger(path string) ([]entity.ExpenseRecord, error) {
	var (
		rows [][]string
		err  error
	)
	switch constants.NormalizeExt(filepath.Ext(path)) {
	case "csv":
		rows, err = readCSV(path)
	case "xlsx":
		rows, err = readXLSX(path)
	default:
		return nil, common.NewAppError(common.CodeLedger, fmt.Sprintf("unsupported ledger %s", path), common.ErrInvalidInput)
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil, common.NewAppError(common.CodeLedger, fmt.Sprintf("no ledger at %s", path), common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	cols := map[string]int{}
	for i, h := range ledger.NormalizeHeader(rows[0]) {
		cols[h] = i
	}
	for _, name := range []string{ledger.ColDate, ledger.ColVendor, ledger.ColAmount} {
		if _, ok := cols[name]; !ok {
			return nil, &common.CorruptLedgerError{Path: path, Reason: fmt.Sprintf("missing %q column", name)}
		}
	}

	cell := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	out := make([]entity.ExpenseRecord, 0, len(rows)-1)
	for n, row := range rows[1:] {
		rec := entity.ExpenseRecord{
			Vendor:  cell(row, ledger.ColVendor),
			Notes:   cell(row, ledger.ColNotes),
			RawText: cell(row, ledger.ColRawText),
		}
		if s := cell(row, ledger.ColDate); s != "" {
			d, err := time.Parse(entity.DateLayout, s)
			if err != nil {
				return nil, &common.CorruptLedgerError{Path: path, Reason: fmt.Sprintf("row %d: bad date %q", n+2, s), Cause: err}
			}
			rec.Date = &d
		}
		if s := cell(row, ledger.ColAmount); s != "" {
			amt, err := decimal.NewFromString(s)
			if err != nil {
				return nil, &common.CorruptLedgerError{Path: path, Reason: fmt.Sprintf("row %d: bad amount %q", n+2, s), Cause: err}
			}
			rec.Amount = decimal.NewNullDecimal(amt)
		}
		out = append(out, rec)
	}
	return out, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, common.WrapError(err, "open ledger")
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, &common.CorruptLedgerError{Path: path, Reason: "unparsable csv", Cause: err}
	}
	return rows, nil
}

func readXLSX(path string) ([][]string, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &common.CorruptLedgerError{Path: path, Reason: "cannot open workbook", Cause: err}
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &common.CorruptLedgerError{Path: path, Reason: "cannot read rows", Cause: err}
	}
	return rows, nil
}

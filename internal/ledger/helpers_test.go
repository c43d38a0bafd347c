package ledger_test

import (
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/joseph-ayodele/receipt-ledger/internal/entity"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func record(vendor, date, amount string) entity.ExpenseRecord {
	rec := entity.ExpenseRecord{Vendor: vendor, Notes: "scanned automatically"}
	if date != "" {
		d, err := time.Parse("2006-01-02", date)
		Expect(err).NotTo(HaveOccurred())
		rec.Date = &d
	}
	if amount != "" {
		rec.Amount = decimal.NewNullDecimal(decimal.RequireFromString(amount))
	}
	return rec
}

func readCSV(path string) [][]string {
	f, err := os.Open(path)
	Expect(err).NotTo(HaveOccurred())
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	Expect(err).NotTo(HaveOccurred())
	return rows
}

func readXLSX(path string) (string, [][]string) {
	f, err := excelize.OpenFile(path)
	Expect(err).NotTo(HaveOccurred())
	defer f.Close()
	sheet := f.GetSheetList()[0]
	rows, err := f.GetRows(sheet)
	Expect(err).NotTo(HaveOccurred())
	return sheet, rows
}

func readBytes(path string) []byte {
	data, err := os.ReadFile(path)
	Expect(err).NotTo(HaveOccurred())
	return data
}

// makeUnreadable drops every permission on path and restores them when the spec ends.
// Root ignores file modes, so the calling spec is skipped there.
func makeUnreadable(path string) {
	if os.Geteuid() == 0 {
		Skip("file permissions are not enforced for root")
	}
	Expect(os.Chmod(path, 0)).To(Succeed())
	DeferCleanup(os.Chmod, path, os.FileMode(0o644))
}

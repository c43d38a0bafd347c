package export_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/joseph-ayodele/receipt-ledger/internal/common"
	"github.com/joseph-ayodele/receipt-ledger/internal/entity"
	"github.com/joseph-ayodele/receipt-ledger/internal/export"
	"github.com/joseph-ayodele/receipt-ledger/internal/ledger"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func day(s string) *time.Time {
	d, err := time.Parse("2006-01-02", s)
	Expect(err).NotTo(HaveOccurred())
	return &d
}

func rec(vendor, date, amount string) entity.ExpenseRecord {
	r := entity.ExpenseRecord{Vendor: vendor, Notes: "scanned automatically"}
	if date != "" {
		r.Date = day(date)
	}
	if amount != "" {
		r.Amount = decimal.NewNullDecimal(decimal.RequireFromString(amount))
	}
	return r
}

var _ = Describe("ReadLedger", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	DescribeTable("reads back what the stores wrote",
		func(name string, newStore func(string, ledger.Options) ledger.Store) {
			path := filepath.Join(dir, name)
			store := newStore(path, ledger.Options{Logger: quietLogger})
			Expect(store.Append(context.Background(), rec("Joe's Diner", "2024-03-04", "18.50"))).To(Succeed())
			Expect(store.Append(context.Background(), rec("Unknown", "", ""))).To(Succeed())

			recs, err := export.ReadLedger(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(recs).To(HaveLen(2))
			Expect(recs[0].Vendor).To(Equal("Joe's Diner"))
			Expect(recs[0].DateString()).To(Equal("2024-03-04"))
			Expect(recs[0].AmountString()).To(Equal("18.50"))
			Expect(recs[1].Date).To(BeNil())
			Expect(recs[1].Amount.Valid).To(BeFalse())
		},
		Entry("csv", "l.csv", func(p string, o ledger.Options) ledger.Store { return ledger.NewCSVStore(p, o) }),
		Entry("xlsx", "l.xlsx", func(p string, o ledger.Options) ledger.Store { return ledger.NewXLSXStore(p, o) }),
	)

	It("rejects other file types", func() {
		_, err := export.ReadLedger(filepath.Join(dir, "l.ods"))
		Expect(err).To(MatchError(common.ErrInvalidInput))
	})

	It("reports a missing ledger as not found", func() {
		_, err := export.ReadLedger(filepath.Join(dir, "missing.xlsx"))
		Expect(err).To(MatchError(common.ErrNotFound))
	})

	It("reads a ledger saved with a byte-order mark", func() {
		path := filepath.Join(dir, "l.csv")
		Expect(os.WriteFile(path, []byte("\ufeffDate,Vendor,Amount,Notes\n2024-01-01,Old,1.00,x\n"), 0o644)).To(Succeed())
		recs, err := export.ReadLedger(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(recs).To(HaveLen(1))
		Expect(recs[0].Vendor).To(Equal("Old"))
		Expect(recs[0].AmountString()).To(Equal("1.00"))
	})

	It("reports foreign files as corrupt", func() {
		path := filepath.Join(dir, "l.csv")
		Expect(os.WriteFile(path, []byte("a,b\n1,2\n"), 0o644)).To(Succeed())
		_, err := export.ReadLedger(path)
		Expect(err).To(MatchError(common.ErrCorruptLedger))
	})
})

var _ = Describe("Service", func() {
	var (
		svc  *export.Service
		recs []entity.ExpenseRecord
	)

	BeforeEach(func() {
		svc = export.NewService(quietLogger)
		recs = []entity.ExpenseRecord{
			rec("March", "2024-03-04", "18.50"),
			rec("Undated", "", "5.00"),
			rec("January", "2024-01-10", "1.25"),
			rec("May", "2024-05-01", "100.00"),
		}
	})

	It("keeps everything, oldest first, for an open window", func() {
		out := svc.Filter(recs, export.Window{})
		Expect(out).To(HaveLen(4))
		Expect(out[0].Vendor).To(Equal("January"))
		Expect(out[3].Vendor).To(Equal("Undated"))
	})

	It("applies inclusive bounds and drops undated rows", func() {
		out := svc.Filter(recs, export.Window{From: day("2024-01-10"), To: day("2024-03-04")})
		Expect(out).To(HaveLen(2))
		Expect(out[0].Vendor).To(Equal("January"))
		Expect(out[1].Vendor).To(Equal("March"))
	})

	It("writes a workbook with a total row", func() {
		data, err := svc.ExportXLSX(context.Background(), recs, export.Window{To: day("2024-04-01")})
		Expect(err).NotTo(HaveOccurred())

		f, err := excelize.OpenReader(bytes.NewReader(data))
		Expect(err).NotTo(HaveOccurred())
		defer f.Close()
		rows, err := f.GetRows("Report")
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(4))
		Expect(rows[0][0]).To(Equal("Transaction Date"))
		Expect(rows[3][1:3]).To(Equal([]string{"Total", "19.75"}))
	})
})

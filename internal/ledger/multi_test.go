package ledger_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/joseph-ayodele/receipt-ledger/internal/entity"
	"github.com/joseph-ayodele/receipt-ledger/internal/ledger"
)

type failingStore struct{ target string }

func (f failingStore) Append(context.Context, entity.ExpenseRecord) error {
	return errors.New("disk full")
}

func (f failingStore) Target() string { return f.target }

var _ = Describe("Multi", func() {
	var (
		ctx context.Context
		dir string
	)

	BeforeEach(func() {
		ctx = context.Background()
		dir = GinkgoT().TempDir()
	})

	It("writes every format", func() {
		csvPath := filepath.Join(dir, "l.csv")
		xlsxPath := filepath.Join(dir, "l.xlsx")
		m := ledger.NewMulti(quietLogger,
			ledger.NewCSVStore(csvPath, ledger.Options{Logger: quietLogger}),
			ledger.NewXLSXStore(xlsxPath, ledger.Options{Logger: quietLogger}),
		)
		results, err := m.Append(ctx, record("A", "2024-01-01", "1.00"))
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(2))
		Expect(readCSV(csvPath)).To(HaveLen(2))
		_, rows := readXLSX(xlsxPath)
		Expect(rows).To(HaveLen(2))
		Expect(m.Targets()).To(Equal([]string{csvPath, xlsxPath}))
	})

	It("surfaces a partial failure without rolling back", func() {
		csvPath := filepath.Join(dir, "l.csv")
		m := ledger.NewMulti(quietLogger,
			failingStore{target: "broken.xlsx"},
			ledger.NewCSVStore(csvPath, ledger.Options{Logger: quietLogger}),
		)
		results, err := m.Append(ctx, record("A", "", ""))

		var pw *ledger.PartialWriteError
		Expect(errors.As(err, &pw)).To(BeTrue())
		Expect(pw.Written).To(Equal([]string{csvPath}))
		Expect(pw.Failed).To(HaveLen(1))
		Expect(pw.Failed[0].Target).To(Equal("broken.xlsx"))
		Expect(pw.AllFailed()).To(BeFalse())
		Expect(err.Error()).To(ContainSubstring("disk full"))

		Expect(results).To(HaveLen(2))
		Expect(results[1].Err).NotTo(HaveOccurred())
		Expect(readCSV(csvPath)).To(HaveLen(2))
	})

	It("reports when every target failed", func() {
		m := ledger.NewMulti(quietLogger, failingStore{target: "a"}, failingStore{target: "b"})
		_, err := m.Append(ctx, record("A", "", ""))
		var pw *ledger.PartialWriteError
		Expect(errors.As(err, &pw)).To(BeTrue())
		Expect(pw.AllFailed()).To(BeTrue())
	})

	It("fails an unwritable target but still writes the others", func() {
		blocker := filepath.Join(dir, "blocker")
		Expect(os.WriteFile(blocker, []byte("x"), 0o644)).To(Succeed())
		csvPath := filepath.Join(dir, "ok.csv")
		m := ledger.NewMulti(quietLogger,
			ledger.NewCSVStore(filepath.Join(blocker, "ledger.csv"), ledger.Options{Logger: quietLogger}),
			ledger.NewCSVStore(csvPath, ledger.Options{Logger: quietLogger}),
		)
		_, err := m.Append(ctx, record("A", "", ""))
		var pw *ledger.PartialWriteError
		Expect(errors.As(err, &pw)).To(BeTrue())
		Expect(pw.Written).To(ConsistOf(csvPath))
	})
})

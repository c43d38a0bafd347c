package journal_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/joseph-ayodele/receipt-ledger/constants"
	"github.com/joseph-ayodele/receipt-ledger/internal/common"
	"github.com/joseph-ayodele/receipt-ledger/internal/journal"
)

var _ = Describe("Journal", func() {
	var (
		ctx context.Context
		j   *journal.Journal
		dsn string
	)

	BeforeEach(func() {
		ctx = context.Background()
		dsn = filepath.Join(GinkgoT().TempDir(), "state", "journal.db")
		var err error
		j, err = journal.Open(ctx, journal.Config{DSN: dsn}, slog.New(slog.NewTextHandler(io.Discard, nil)))
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(j.Close)
	})

	It("requires a dsn", func() {
		_, err := journal.Open(ctx, journal.Config{}, nil)
		Expect(err).To(MatchError(common.ErrInvalidInput))
	})

	It("fills id and timestamp", func() {
		e, err := j.Record(ctx, journal.Entry{RunID: "run", Path: "a.jpg", SHA256: "h1", Status: constants.StatusOK})
		Expect(err).NotTo(HaveOccurred())
		Expect(e.ID).NotTo(BeEmpty())
		Expect(e.ProcessedAt).NotTo(BeZero())
	})

	It("treats only OK entries as processed", func() {
		_, err := j.Record(ctx, journal.Entry{RunID: "run", Path: "a.jpg", SHA256: "h1", Status: constants.StatusFailed})
		Expect(err).NotTo(HaveOccurred())
		_, err = j.Record(ctx, journal.Entry{RunID: "run", Path: "b.jpg", SHA256: "h2", Status: constants.StatusPartial})
		Expect(err).NotTo(HaveOccurred())
		Expect(j.Processed(ctx, "h1")).To(BeFalse())
		Expect(j.Processed(ctx, "h2")).To(BeFalse())

		_, err = j.Record(ctx, journal.Entry{RunID: "run2", Path: "a.jpg", SHA256: "h1", Status: constants.StatusOK})
		Expect(err).NotTo(HaveOccurred())
		Expect(j.Processed(ctx, "h1")).To(BeTrue())
	})

	It("lists recent entries newest first", func() {
		base := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)
		for i, vendor := range []string{"first", "second", "third"} {
			_, err := j.Record(ctx, journal.Entry{
				RunID:       "run",
				Path:        vendor + ".jpg",
				SHA256:      vendor,
				Status:      constants.StatusOK,
				Vendor:      vendor,
				Date:        "2024-03-04",
				Amount:      "18.50",
				Confidence:  0.75,
				ProcessedAt: base.Add(time.Duration(i) * time.Minute),
			})
			Expect(err).NotTo(HaveOccurred())
		}

		entries, err := j.Recent(ctx, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(2))
		Expect(entries[0].Vendor).To(Equal("third"))
		Expect(entries[1].Vendor).To(Equal("second"))
		Expect(entries[0].Status).To(Equal(constants.StatusOK))
		Expect(entries[0].Amount).To(Equal("18.50"))
		Expect(entries[0].Confidence).To(BeNumerically("~", 0.75))
		Expect(entries[0].ProcessedAt).To(BeTemporally("==", base.Add(2*time.Minute)))
	})

	It("persists across reopen", func() {
		_, err := j.Record(ctx, journal.Entry{RunID: "run", Path: "a.jpg", SHA256: "h1", Status: constants.StatusOK})
		Expect(err).NotTo(HaveOccurred())
		j.Close()

		again, err := journal.Open(ctx, journal.Config{DSN: dsn}, nil)
		Expect(err).NotTo(HaveOccurred())
		defer again.Close()
		Expect(again.Processed(ctx, "h1")).To(BeTrue())
	})
})

package cli_test

import (
	"bytes"
	"os"
	"path/filepath"
	"time"

	"github.com/peterbourgon/ff/v4"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/joseph-ayodele/receipt-ledger/internal/cli"
	"github.com/joseph-ayodele/receipt-ledger/internal/common"
)

var _ = Describe("flags", func() {
	var (
		fs       *ff.FlagSet
		base     *cli.Base
		pipeline *cli.Pipeline
		batch    *cli.Batch
	)

	BeforeEach(func() {
		fs = ff.NewFlagSet("test")
		base = cli.RegisterBase(fs)
		pipeline = cli.RegisterPipeline(fs)
		batch = cli.RegisterBatch(fs)
	})

	It("leaves the configuration alone when no flags are given", func() {
		Expect(ff.Parse(fs, nil)).To(Succeed())
		cfg := common.DefaultConfig()
		pipeline.Apply(&cfg)
		batch.Apply(&cfg)
		Expect(cfg).To(Equal(common.DefaultConfig()))
	})

	It("overrides what is given", func() {
		Expect(ff.Parse(fs, []string{
			"--xlsx", "out.xlsx",
			"--amount-policy", "first_currency",
			"--raw-text",
			"--raw-text-limit", "0",
			"--ocr-timeout", "10s",
			"--threshold", "128",
			"--ext", "jpg, PNG,,",
			"--recursive",
			"--include-hidden",
			"--journal", "j.db",
			"--skip-processed",
		})).To(Succeed())

		cfg := common.DefaultConfig()
		pipeline.Apply(&cfg)
		batch.Apply(&cfg)
		Expect(cfg.Ledger.XLSXPath).To(Equal("out.xlsx"))
		Expect(cfg.Ledger.CSVPath).To(Equal("./expense_report.csv"))
		Expect(cfg.Extract.AmountPolicy).To(Equal("first_currency"))
		Expect(cfg.Ledger.IncludeRawText).To(BeTrue())
		Expect(cfg.Ledger.RawTextLimit).To(Equal(0))
		Expect(cfg.OCR.Timeout).To(Equal(10 * time.Second))
		Expect(cfg.OCR.Threshold).To(Equal(128))
		Expect(cfg.Batch.Extensions).To(Equal([]string{"jpg", "PNG"}))
		Expect(cfg.Batch.Recursive).To(BeTrue())
		Expect(cfg.Batch.SkipHidden).To(BeFalse())
		Expect(cfg.Journal.DSN).To(Equal("j.db"))
		Expect(cfg.Journal.SkipProcessed).To(BeTrue())
		Expect(cfg.Validate()).To(Succeed())
	})

	It("lets flags win over the config file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "c.yaml")
		Expect(os.WriteFile(path, []byte("ledger:\n  csv_path: file.csv\n  xlsx_path: file.xlsx\n"), 0o644)).To(Succeed())
		Expect(ff.Parse(fs, []string{"--config", path, "--csv", "flag.csv"})).To(Succeed())

		cfg, err := base.Config()
		Expect(err).NotTo(HaveOccurred())
		pipeline.Apply(cfg)
		Expect(cfg.Ledger.CSVPath).To(Equal("flag.csv"))
		Expect(cfg.Ledger.XLSXPath).To(Equal("file.xlsx"))
	})

	Describe("Logger", func() {
		It("writes JSON at the requested level", func() {
			Expect(ff.Parse(fs, []string{"--log-format", "json", "--log-level", "warn"})).To(Succeed())
			var buf bytes.Buffer
			logger, err := base.Logger(&buf)
			Expect(err).NotTo(HaveOccurred())
			logger.Info("hidden")
			logger.Warn("shown", "path", "a.jpg")
			Expect(buf.String()).NotTo(ContainSubstring("hidden"))
			Expect(buf.String()).To(ContainSubstring(`"path":"a.jpg"`))
		})

		It("rejects unknown formats and levels", func() {
			Expect(ff.Parse(fs, []string{"--log-format", "xml"})).To(Succeed())
			_, err := base.Logger(&bytes.Buffer{})
			Expect(err).To(HaveOccurred())

			fs2 := ff.NewFlagSet("test2")
			b2 := cli.RegisterBase(fs2)
			Expect(ff.Parse(fs2, []string{"--log-level", "loud"})).To(Succeed())
			_, err = b2.Logger(&bytes.Buffer{})
			Expect(err).To(HaveOccurred())
		})
	})
})

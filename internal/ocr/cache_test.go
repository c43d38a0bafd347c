package ocr_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/joseph-ayodele/receipt-ledger/internal/ocr"
)

type countingRecognizer struct {
	calls int
	text  string
	err   error
}

func (c *countingRecognizer) Recognize(context.Context, ocr.Image) (string, error) {
	c.calls++
	return c.text, c.err
}

var _ = Describe("CachingRecognizer", func() {
	var (
		dir     string
		cache   *ocr.BoltCache
		inner   *countingRecognizer
		receipt string
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		var err error
		cache, err = ocr.OpenBoltCache(filepath.Join(dir, "cache", "ocr.db"))
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(cache.Close)

		inner = &countingRecognizer{text: "Joe's Diner"}
		receipt = filepath.Join(dir, "r.jpg")
		Expect(os.WriteFile(receipt, []byte("receipt bytes"), 0o644)).To(Succeed())
	})

	It("recognizes once per source content", func() {
		rec := ocr.NewCachingRecognizer(inner, cache, "tesseract", quietLogger)
		img := ocr.Image{Path: receipt, Source: receipt}

		for i := 0; i < 3; i++ {
			text, err := rec.Recognize(context.Background(), img)
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("Joe's Diner"))
		}
		Expect(inner.calls).To(Equal(1))
	})

	It("keeps engines apart", func() {
		img := ocr.Image{Path: receipt, Source: receipt}
		_, err := ocr.NewCachingRecognizer(inner, cache, "tesseract", quietLogger).Recognize(context.Background(), img)
		Expect(err).NotTo(HaveOccurred())
		_, err = ocr.NewCachingRecognizer(inner, cache, "gemini", quietLogger).Recognize(context.Background(), img)
		Expect(err).NotTo(HaveOccurred())
		Expect(inner.calls).To(Equal(2))
	})

	It("uses a precomputed source hash", func() {
		rec := ocr.NewCachingRecognizer(inner, cache, "t", quietLogger)
		Expect(cache.Put("t:abc", "cached text")).To(Succeed())
		text, err := rec.Recognize(context.Background(), ocr.Image{Path: "missing.png", SourceHash: "abc"})
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("cached text"))
		Expect(inner.calls).To(BeZero())
	})

	It("does not cache failures", func() {
		inner.err = errors.New("boom")
		rec := ocr.NewCachingRecognizer(inner, cache, "t", quietLogger)
		img := ocr.Image{Path: receipt, Source: receipt}
		_, err := rec.Recognize(context.Background(), img)
		Expect(err).To(HaveOccurred())

		inner.err = nil
		text, err := rec.Recognize(context.Background(), img)
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("Joe's Diner"))
		Expect(inner.calls).To(Equal(2))
	})
})

var _ = Describe("HashFile", func() {
	It("returns the hex sha256", func() {
		path := filepath.Join(GinkgoT().TempDir(), "f")
		Expect(os.WriteFile(path, []byte("abc"), 0o644)).To(Succeed())
		Expect(ocr.HashFile(path)).To(Equal("ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"))
	})
})

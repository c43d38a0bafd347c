package ocr_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/joseph-ayodele/receipt-ledger/constants"
	"github.com/joseph-ayodele/receipt-ledger/internal/ocr"
)

var _ = Describe("Normalize", func() {
	It("returns empty text unchanged", func() {
		Expect(ocr.Normalize("")).To(Equal(""))
	})

	It("unifies line endings and collapses whitespace", func() {
		in := "Joe's  Diner\r\n\t03/04/2024   \r\n\r\n\r\n\r\nAmount:\t$18.50  "
		Expect(ocr.Normalize(in)).To(Equal("Joe's Diner\n 03/04/2024\n\nAmount: $18.50"))
	})

	It("drops separator rules", func() {
		Expect(ocr.Normalize("Store\n-------\nTotal 1.00\n=====")).To(Equal("Store\n\nTotal 1.00"))
	})

	It("keeps leading zeros in dates", func() {
		Expect(ocr.Normalize("03-04-25 09:05")).To(Equal("03-04-25 09:05"))
	})
})

var _ = Describe("Confidence", func() {
	It("is zero for blank text", func() {
		Expect(ocr.Confidence("  \n")).To(BeZero())
	})

	It("scores receipt-like text above the threshold", func() {
		text := "Joe's Diner\n03/04/2024\nBurger 12.00\nTotal $18.50"
		Expect(ocr.Confidence(text)).To(BeNumerically(">=", constants.ImageConfidenceThreshold))
	})

	It("scores prose below the threshold", func() {
		Expect(ocr.Confidence("hello world")).To(BeNumerically("<", constants.ImageConfidenceThreshold))
	})

	It("never exceeds one", func() {
		long := "Total $1,234.56 USD 01/02/2024 "
		for i := 0; i < 10; i++ {
			long += long
		}
		Expect(ocr.Confidence(long)).To(BeNumerically("<=", 1.0))
	})
})

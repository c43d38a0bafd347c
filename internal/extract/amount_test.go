package extract_test

import (
	"github.com/shopspring/decimal"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/joseph-ayodele/receipt-ledger/internal/extract"
)

func fixed(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.StringFixed(2)
}

var _ = Describe("Amount heuristics", func() {
	Describe("LabeledMaxAmount", func() {
		It("returns the maximum of several labeled amounts", func() {
			text := "Amount: $5.00\nsomething\nAmount: $42.50\nAmount: $12.00"
			Expect(fixed(extract.LabeledMaxAmount(text))).To(Equal("42.50"))
		})

		It("prefers a labeled amount over a larger bare one", func() {
			text := "Amount: $18.50\nCash: $20.00"
			Expect(fixed(extract.LabeledMaxAmount(text))).To(Equal("18.50"))
		})

		It("matches the label case-insensitively and without a dollar sign", func() {
			Expect(fixed(extract.LabeledMaxAmount("AMOUNT 9.99"))).To(Equal("9.99"))
		})

		It("accepts thousands separators", func() {
			Expect(fixed(extract.LabeledMaxAmount("Amount: $1,234.56"))).To(Equal("1234.56"))
		})

		It("falls back to a bare currency token", func() {
			Expect(fixed(extract.LabeledMaxAmount("Coffee\n$7.25"))).To(Equal("7.25"))
		})

		It("takes the maximum in the fallback pass", func() {
			Expect(fixed(extract.LabeledMaxAmount("Sub 10.00\nTax 0.80\nTotal 10.80"))).To(Equal("10.80"))
		})

		It("lets a labeled $0.00 suppress the fallback", func() {
			Expect(fixed(extract.LabeledMaxAmount("Amount: $0.00\nTotal $55.00"))).To(Equal("0.00"))
		})

		It("ignores figures with more than two decimals", func() {
			Expect(extract.LabeledMaxAmount("Amount: 12.345").Valid).To(BeFalse())
		})

		It("ignores dotted dates", func() {
			Expect(extract.LabeledMaxAmount("03.04.2024").Valid).To(BeFalse())
		})

		It("returns absent when nothing matches", func() {
			Expect(extract.LabeledMaxAmount("no money here").Valid).To(BeFalse())
			Expect(extract.LabeledMaxAmount("").Valid).To(BeFalse())
		})
	})

	Describe("FirstCurrencyAmount", func() {
		It("returns the first dollar amount", func() {
			Expect(fixed(extract.FirstCurrencyAmount("Tip $2.00\nAmount $18.50"))).To(Equal("2.00"))
		})

		It("ignores amounts without a dollar sign", func() {
			Expect(extract.FirstCurrencyAmount("Total 5.00").Valid).To(BeFalse())
		})
	})
})

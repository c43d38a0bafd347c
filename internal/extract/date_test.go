package extract_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/joseph-ayodele/receipt-ledger/internal/extract"
)

func iso(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

var _ = Describe("ExtractDate", func() {
	var (
		text   string
		result *time.Time
	)

	JustBeforeEach(func() {
		result = extract.ExtractDate(text, extract.DefaultDateLayouts)
	})

	When("there is no date-like token", func() {
		BeforeEach(func() {
			text = "Corner Cafe\nLatte 4.50\nThank you!"
		})

		It("returns nil", func() {
			Expect(result).To(BeNil())
		})
	})

	When("the token is a US date with a four-digit year", func() {
		BeforeEach(func() {
			text = "Joe's Diner\n03/04/2024 12:31"
		})

		It("reads month first", func() {
			Expect(iso(result)).To(Equal("2024-03-04"))
		})

		It("returns midnight UTC", func() {
			Expect(result.Location()).To(Equal(time.UTC))
			Expect(result.Hour()).To(BeZero())
		})
	})

	When("the token is ambiguous with a two-digit year", func() {
		BeforeEach(func() {
			text = "Date: 03-04-25"
		})

		It("uses the first layout that parses", func() {
			Expect(iso(result)).To(Equal("2025-03-04"))
		})
	})

	When("the month position is out of range", func() {
		BeforeEach(func() {
			text = "13/04/2024"
		})

		It("falls through to the day-first layout", func() {
			Expect(iso(result)).To(Equal("2024-04-13"))
		})
	})

	When("a two-digit year is in the last century window", func() {
		BeforeEach(func() {
			text = "1/2/99"
		})

		It("pivots like %y", func() {
			Expect(iso(result)).To(Equal("1999-01-02"))
		})
	})

	When("the first token is not a valid date", func() {
		BeforeEach(func() {
			text = "Ref 99/99/2024\nVisited 7/15/2023"
		})

		It("returns the first token that parses", func() {
			Expect(iso(result)).To(Equal("2023-07-15"))
		})
	})

	When("the separators are mixed", func() {
		BeforeEach(func() {
			text = "03/04-2024"
		})

		It("does not treat it as a date", func() {
			Expect(result).To(BeNil())
		})
	})

	When("the year has three digits", func() {
		BeforeEach(func() {
			text = "03/04/202"
		})

		It("does not treat it as a date", func() {
			Expect(result).To(BeNil())
		})
	})

	When("no token parses under any layout", func() {
		BeforeEach(func() {
			text = "99/99/99"
		})

		It("returns nil instead of the raw fragment", func() {
			Expect(result).To(BeNil())
		})
	})

	It("lists tokens in order of appearance", func() {
		Expect(extract.DateTokens("a 1/2/2024 b 3-4-25 c")).To(Equal([]string{"1/2/2024", "3-4-25"}))
	})
})

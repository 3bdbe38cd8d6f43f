package sale_test

import (
	"github.com/shopspring/decimal"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/subscription-sales/internal"
	"github.com/frahmantamala/subscription-sales/internal/sale"
)

var _ = Describe("Money", func() {
	It("should multiply price by quantity without rounding", func() {
		total := sale.OrderTotal(decimal.RequireFromString("49.90"), 2)
		Expect(total.Equal(decimal.RequireFromString("99.80"))).To(BeTrue())

		total = sale.OrderTotal(decimal.RequireFromString("0.10"), 3)
		Expect(total.String()).To(Equal("0.3"))
	})

	It("should convert to minor units truncating toward zero", func() {
		Expect(sale.ToMinorUnits(decimal.RequireFromString("99.80"))).To(Equal(int64(9980)))
		Expect(sale.ToMinorUnits(decimal.RequireFromString("10.005"))).To(Equal(int64(1000)))
		Expect(sale.ToMinorUnits(decimal.RequireFromString("10.999"))).To(Equal(int64(1099)))
	})

	It("should convert minor units back to major units", func() {
		Expect(sale.FromMinorUnits(9980).Equal(decimal.RequireFromString("99.80"))).To(BeTrue())
		Expect(sale.FromMinorUnits(5).StringFixed(2)).To(Equal("0.05"))
	})
})

var _ = Describe("ParseCardExpiry", func() {
	It("should expand MM/YY into month and four-digit year", func() {
		month, year, appErr := sale.ParseCardExpiry("12/25")
		Expect(appErr).To(BeNil())
		Expect(month).To(Equal("12"))
		Expect(year).To(Equal("2025"))
	})

	It("should pad a single-digit month", func() {
		month, year, appErr := sale.ParseCardExpiry("3/27")
		Expect(appErr).To(BeNil())
		Expect(month).To(Equal("03"))
		Expect(year).To(Equal("2027"))
	})

	DescribeTable("should reject malformed expiries",
		func(expiry string) {
			_, _, appErr := sale.ParseCardExpiry(expiry)
			Expect(appErr).NotTo(BeNil())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidExpiryFormat))
			Expect(appErr.Message).To(Equal(sale.MessageInvalidExpiry))
		},
		Entry("no separator", "1225"),
		Entry("two separators", "12/25/30"),
		Entry("four-digit year", "12/2025"),
		Entry("empty year", "12/"),
		Entry("month out of range", "13/25"),
		Entry("letters", "ab/cd"),
		Entry("empty", ""),
	)
})

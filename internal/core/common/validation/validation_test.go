package validation_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	errors "github.com/frahmantamala/optical-pos/internal"
	"github.com/frahmantamala/optical-pos/internal/core/common/validation"
)

func TestValidation(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Validation Suite")
}

var _ = Describe("Validation", func() {
	Describe("ValidateStockAdjustment", func() {
		It("accepts a signed delta with a reason", func() {
			Expect(validation.ValidateStockAdjustment(-3, "damaged frame")).To(BeNil())
		})

		It("rejects a zero delta with the quantity code", func() {
			err := validation.ValidateStockAdjustment(0, "recount")
			Expect(err).NotTo(BeNil())
			Expect(err.Type).To(Equal(errors.ErrorTypeValidation))
			Expect(err.Code).To(Equal(errors.ErrCodeInvalidQuantity))
		})

		It("rejects a whitespace reason", func() {
			err := validation.ValidateStockAdjustment(2, "   ")
			Expect(err).NotTo(BeNil())
			Expect(err.Code).To(Equal(errors.ErrCodeInvalidReason))
		})

		It("collects both failures under the generic code", func() {
			err := validation.ValidateStockAdjustment(0, "")
			Expect(err).NotTo(BeNil())
			Expect(err.Code).To(Equal(errors.ErrCodeValidationFailed))
			details, ok := err.Details.(errors.ValidationErrors)
			Expect(ok).To(BeTrue())
			Expect(details.Errors).To(HaveLen(2))
		})
	})

	Describe("ValidateOpeningFloat", func() {
		It("accepts zero", func() {
			Expect(validation.ValidateOpeningFloat(decimal.Zero)).To(BeNil())
		})

		It("rejects a negative amount", func() {
			err := validation.ValidateOpeningFloat(decimal.NewFromFloat(-0.01))
			Expect(err).NotTo(BeNil())
			Expect(err.Code).To(Equal(errors.ErrCodeInvalidAmount))
		})
	})

	Describe("ValidateReceiptQuantity", func() {
		It("rejects zero and negative quantities", func() {
			Expect(validation.ValidateReceiptQuantity(0)).NotTo(BeNil())
			Expect(validation.ValidateReceiptQuantity(-1)).NotTo(BeNil())
			Expect(validation.ValidateReceiptQuantity(1)).To(BeNil())
		})
	})
})

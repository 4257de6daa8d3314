// Package validation parses raw invoice form submissions into typed input.
package validation

import (
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/rl1809/invoice-dashboard/internal/core/domain"
)

// Form field names as submitted by the dashboard.
const (
	FieldCustomerID = "customerId"
	FieldAmount     = "amount"
	FieldStatus     = "status"
)

const (
	MsgCustomer = "Please select a customer."
	MsgAmount   = "Please enter an amount greater than $0."
	MsgStatus   = "Please select an invoice status."
)

var messages = map[string]string{
	FieldCustomerID: MsgCustomer,
	FieldAmount:     MsgAmount,
	FieldStatus:     MsgStatus,
}

type invoiceForm struct {
	CustomerID string `form:"customerId" validate:"required"`
	Amount     string `form:"amount" validate:"positive_amount"`
	Status     string `form:"status" validate:"oneof=pending paid"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("form")
	})
	_ = v.RegisterValidation("positive_amount", func(fl validator.FieldLevel) bool {
		_, ok := MinorUnits(fl.Field().String())
		return ok
	})
	return v
}

const (
	maxAmountLength   = 64
	maxAmountExponent = 32
)

var maxMinorUnits = decimal.NewFromInt(math.MaxInt64)

// coerceAmount converts submitted text to a number the way a lenient form
// coercion does: surrounding blanks are ignored and an empty value is zero.
// Overlong input and exponents beyond +-maxAmountExponent are rejected.
func coerceAmount(raw string) (decimal.Decimal, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, true
	}
	if len(raw) > maxAmountLength {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	if exp := d.Exponent(); exp > maxAmountExponent || exp < -maxAmountExponent {
		return decimal.Zero, false
	}
	return d, true
}

// MinorUnits returns round(amount * 100) for a submitted amount. It reports
// false unless the result is between 1 and math.MaxInt64.
func MinorUnits(raw string) (int64, bool) {
	amount, ok := coerceAmount(raw)
	if !ok {
		return 0, false
	}
	minor := amount.Shift(2).Round(0)
	if minor.LessThan(decimal.NewFromInt(1)) || minor.GreaterThan(maxMinorUnits) {
		return 0, false
	}
	return minor.IntPart(), true
}

// ParseInvoiceForm validates customerId, amount and status. It returns the
// typed input when every field passes, otherwise a non-empty FieldErrors.
func ParseInvoiceForm(form domain.FormData) (domain.InvoiceInput, domain.FieldErrors) {
	f := invoiceForm{
		CustomerID: form[FieldCustomerID],
		Amount:     form[FieldAmount],
		Status:     form[FieldStatus],
	}

	if err := validate.Struct(f); err != nil {
		fieldErrs := domain.FieldErrors{}
		for _, fe := range err.(validator.ValidationErrors) {
			fieldErrs.Add(fe.Field(), messages[fe.Field()])
		}
		return domain.InvoiceInput{}, fieldErrs
	}

	amount, _ := MinorUnits(f.Amount)
	return domain.InvoiceInput{
		CustomerID: f.CustomerID,
		Amount:     amount,
		Status:     domain.InvoiceStatus(f.Status),
	}, nil
}

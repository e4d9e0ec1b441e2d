package core

import (
	"github.com/shopspring/decimal"
)

// MoneyPlaces is the scale of every money column (NUMERIC(25,2)).
const MoneyPlaces = 2

// MaxAmount is the exclusive upper bound of a single money value.
var MaxAmount = decimal.New(1, 15)

// IsMoney reports whether d can be stored in a money column without rounding.
func IsMoney(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MoneyPlaces)) && d.Abs().LessThan(MaxAmount)
}

// CheckAmount validates a strictly positive money amount, reporting errors on field.
func CheckAmount(field string, amount decimal.Decimal) error {
	switch {
	case !amount.IsPositive():
		return NewFieldError(field, "amount must be greater than 0")
	case !amount.Equal(amount.Truncate(MoneyPlaces)):
		return NewFieldError(field, "amount cannot have more than 2 decimal places")
	case !amount.LessThan(MaxAmount):
		return NewFieldError(field, "amount is too large")
	}
	return nil
}

package domain

import (
	"github.com/shopspring/decimal"
)

// minorPerMajor is the number of minor currency units (paise, cents) per major unit.
const minorPerMajor = 100

var hundred = decimal.NewFromInt(minorPerMajor)

// ToMinorUnits converts a major-unit amount to the processor's integer
// representation, rounding half away from zero.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

// Cents rounds an amount to two decimal places.
func Cents(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

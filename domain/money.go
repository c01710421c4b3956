package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Amounts are persisted as integer minor units with two decimal places.
const moneyScale = 2

// TotalTolerance is the largest accepted difference between a submitted
// total and the one computed from the line items.
var TotalTolerance = decimal.New(1, -moneyScale)

// MaxAmount bounds every price and total the service accepts. Its minor
// unit value, and any sane sum of such values, fits in an int64.
var MaxAmount = decimal.New(1, 12)

// ToMinor converts to minor units. Callers bound d with CheckAmount first;
// larger values do not fit the persisted column.
func ToMinor(d decimal.Decimal) int64 {
	return d.Shift(moneyScale).Round(0).IntPart()
}

func FromMinor(v int64) decimal.Decimal {
	return decimal.New(v, -moneyScale)
}

// RoundMoney rounds to the persisted precision.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(moneyScale)
}

// CheckAmount rejects negative amounts and amounts above MaxAmount.
func CheckAmount(field string, d decimal.Decimal) error {
	if d.IsNegative() {
		return &ValidationError{Field: field, Err: ErrInvalidPrice}
	}
	if d.GreaterThan(MaxAmount) {
		return &ValidationError{Field: field, Err: fmt.Errorf("%w (max %s)", ErrAmountTooLarge, MaxAmount.StringFixed(moneyScale))}
	}
	return nil
}

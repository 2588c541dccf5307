package types

import "github.com/shopspring/decimal"

// QuantityPlaces is the scale of every stored quantity column.
const QuantityPlaces = 2

// CheckQuantityScale rejects quantities the store would round.
func CheckQuantityScale(field string, quantity decimal.Decimal) error {
	if !quantity.Equal(quantity.Round(QuantityPlaces)) {
		return Validation(field, "%s allows at most %d decimal places", field, QuantityPlaces)
	}
	return nil
}

package validation

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AmountPlaces is the number of fractional digits the transaction log
// stores.
const AmountPlaces = 2

// Transaction validates the inputs of a submit or confirm call.
func (v *Validator) Transaction(userID int64, amount decimal.Decimal) {
	v.Check(userID > 0, "user_id", "must be a positive integer")
	v.Check(amount.IsPositive(), "amount", "must be greater than zero")
	v.Check(amount.Equal(amount.Truncate(AmountPlaces)), "amount",
		fmt.Sprintf("must have at most %d decimal places", AmountPlaces))
}

// Transaction is a shorthand returning the validation error, if any.
func Transaction(userID int64, amount decimal.Decimal) error {
	v := New()
	v.Transaction(userID, amount)
	return v.Err()
}

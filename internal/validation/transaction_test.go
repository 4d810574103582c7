package validation

import (
	"testing"

	apperr "featurestore/internal/errors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTransaction(t *testing.T) {
	tests := []struct {
		name    string
		userID  int64
		amount  decimal.Decimal
		wantErr string
	}{
		{name: "valid", userID: 42, amount: decimal.RequireFromString("1500.00")},
		{name: "zero amount", userID: 42, amount: decimal.Zero, wantErr: "amount must be greater than zero"},
		{name: "negative amount", userID: 42, amount: decimal.NewFromInt(-5), wantErr: "amount must be greater than zero"},
		{name: "trailing zeros", userID: 42, amount: decimal.RequireFromString("10.500")},
		{name: "sub-cent amount", userID: 1, amount: decimal.RequireFromString("0.001"), wantErr: "amount must have at most 2 decimal places"},
		{name: "three decimal places", userID: 1, amount: decimal.RequireFromString("10.005"), wantErr: "amount must have at most 2 decimal places"},
		{name: "missing user", userID: 0, amount: decimal.NewFromInt(5), wantErr: "user_id must be a positive integer"},
		{name: "both invalid", userID: -1, amount: decimal.Zero, wantErr: "amount must be greater than zero; user_id must be a positive integer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Transaction(tt.userID, tt.amount)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, apperr.ErrValidation)
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

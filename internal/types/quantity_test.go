package types

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCheckQuantityScale(t *testing.T) {
	tests := []struct {
		quantity string
		valid    bool
	}{
		{"3", true},
		{"2.5", true},
		{"0.01", true},
		{"12.30", true},
		{"-1.25", true},
		{"0.001", false},
		{"1.005", false},
		{"-0.125", false},
	}

	for _, tt := range tests {
		t.Run(tt.quantity, func(t *testing.T) {
			err := CheckQuantityScale("quantity", decimal.RequireFromString(tt.quantity))
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrValidation)
			assert.Equal(t, "quantity", FieldOf(err))
		})
	}
}

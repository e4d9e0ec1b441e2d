package core_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/markaz/core"
)

func TestCheckAmount(t *testing.T) {
	tests := []struct {
		amount  string
		wantMsg string
	}{
		{amount: "0.01"},
		{amount: "12.50"},
		{amount: "12.500"},
		{amount: "999999999999999.99"},
		{amount: "0", wantMsg: "amount must be greater than 0"},
		{amount: "-1", wantMsg: "amount must be greater than 0"},
		{amount: "0.005", wantMsg: "amount cannot have more than 2 decimal places"},
		{amount: "0.004", wantMsg: "amount cannot have more than 2 decimal places"},
		{amount: "1000000000000000", wantMsg: "amount is too large"},
	}
	for _, tc := range tests {
		t.Run(tc.amount, func(t *testing.T) {
			err := core.CheckAmount("amount", decimal.RequireFromString(tc.amount))
			if tc.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			var verr *core.ValidationError
			require.True(t, errors.As(err, &verr), "want validation error, got %v", err)
			require.Len(t, verr.Fields, 1)
			assert.Equal(t, "amount", verr.Fields[0].Field)
			assert.Equal(t, tc.wantMsg, verr.Fields[0].Error)
		})
	}
}

func TestIsMoney(t *testing.T) {
	assert.True(t, core.IsMoney(decimal.Zero))
	assert.True(t, core.IsMoney(decimal.RequireFromString("-20.10")))
	assert.False(t, core.IsMoney(decimal.RequireFromString("0.001")))
	assert.False(t, core.IsMoney(core.MaxAmount.Neg()))
}

package orders

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetTotalAmount(t *testing.T) {
	order := Order{
		Items: []OrderItem{
			{MenuID: 1, Name: "Americano", UnitPrice: 450, Quantity: 2},
		},
		Status: StatusPending,
	}
	order.SetTotalAmount()

	assert.Equal(t, Money(900), order.TotalAmount)
	assert.Equal(t, StatusPending, order.Status)
}

func TestSetTotalAmount_IgnoresInputTotal(t *testing.T) {
	order := Order{
		TotalAmount: 1, // bogus client-supplied total
		Items: []OrderItem{
			{MenuID: 2, Name: "Latte", UnitPrice: 550, Quantity: 1},
			{MenuID: 4, Name: "Mocha", UnitPrice: 600, Quantity: 3},
		},
	}
	order.SetTotalAmount()

	assert.Equal(t, Money(550+3*600), order.TotalAmount)
}

func TestValidateItems(t *testing.T) {
	tests := []struct {
		name    string
		items   []OrderItem
		wantErr bool
	}{
		{"valid", []OrderItem{{MenuID: 1, Name: "Americano", UnitPrice: 450, Quantity: 1}}, false},
		{"empty", nil, true},
		{"zero_quantity", []OrderItem{{MenuID: 1, Name: "Americano", UnitPrice: 450, Quantity: 0}}, true},
		{"negative_price", []OrderItem{{MenuID: 1, Name: "Americano", UnitPrice: -1, Quantity: 1}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateItems(tt.items)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrValidation))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestClone_IsolatesItems(t *testing.T) {
	order := Order{
		ID:    "a",
		Items: []OrderItem{{MenuID: 1, Name: "Americano", UnitPrice: 450, Quantity: 2}},
	}

	cp := order.Clone()
	require.Len(t, cp.Items, 1)
	cp.Items[0].Quantity = 99

	assert.Equal(t, 2, order.Items[0].Quantity)
}

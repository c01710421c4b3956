package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSaleSubtotal(t *testing.T) {
	sale := Sale{Items: []SaleItem{
		{Quantity: 2, UnitPrice: decimal.RequireFromString("10.99")},
		{Quantity: 1, UnitPrice: decimal.RequireFromString("15.50")},
	}}
	assert.Equal(t, "37.48", sale.Subtotal().StringFixed(2))
	assert.Equal(t, "21.98", sale.Items[0].LineTotal().StringFixed(2))
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(8999900), ToMinor(decimal.RequireFromString("89999.00")))
	assert.Equal(t, int64(1099), ToMinor(decimal.RequireFromString("10.985")))
	assert.True(t, FromMinor(1550).Equal(decimal.RequireFromString("15.5")))
}

func TestProductIsLowStock(t *testing.T) {
	assert.True(t, Product{Stock: 2, LowStockThreshold: 10}.IsLowStock())
	assert.True(t, Product{Stock: 5, LowStockThreshold: 5}.IsLowStock())
	assert.False(t, Product{Stock: 6, LowStockThreshold: 5}.IsLowStock())
}

func TestCheckAmount(t *testing.T) {
	assert.NoError(t, CheckAmount("price", decimal.Zero))
	assert.NoError(t, CheckAmount("price", MaxAmount))

	err := CheckAmount("price", decimal.RequireFromString("-0.01"))
	assert.ErrorIs(t, err, ErrInvalidPrice)

	// Would wrap to 2.00 once shifted into int64 minor units
	err = CheckAmount("unit_price", decimal.RequireFromString("184467440737095518.16"))
	assert.ErrorIs(t, err, ErrAmountTooLarge)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Contains(t, err.Error(), "unit_price")
}
